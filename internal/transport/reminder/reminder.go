package reminder

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	domainreminder "github.com/alanyang/threadkeeper/internal/domain/reminder"
	remindersvc "github.com/alanyang/threadkeeper/internal/service/reminder"
)

func Register(rg *gin.RouterGroup, svc *remindersvc.Service) {
	rg.GET("", listReminders(svc))
}

// reminderView adds a human due time to the stored reminder.
type reminderView struct {
	domainreminder.Reminder
	Due string `json:"due"`
}

func listReminders(svc *remindersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		guildID := c.Query("guild_id")
		if guildID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id is required"})
			return
		}

		rs, err := svc.ListAll(c.Request.Context(), guildID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		out := make([]reminderView, 0, len(rs))
		for _, r := range rs {
			out = append(out, reminderView{Reminder: r, Due: humanize.RelTime(r.DueAt, now, "ago", "from now")})
		}
		c.JSON(http.StatusOK, out)
	}
}
