package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portaudit "github.com/alanyang/threadkeeper/internal/port/audit"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func Register(rg *gin.RouterGroup, store portaudit.Store) {
	rg.GET("", recentEvents(store))
}

func recentEvents(store portaudit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = min(n, maxLimit)
		}

		events, err := store.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, events)
	}
}
