package task

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/threadkeeper/internal/scheduler"
)

// Runner is the part of the scheduler the ops API drives.
type Runner interface {
	Names() []string
	RunNow(ctx context.Context, name string) error
}

func Register(rg *gin.RouterGroup, runner Runner) {
	rg.GET("", listTasks(runner))
	rg.POST("/:name/run", runTask(runner))
}

func listTasks(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tasks": runner.Names()})
	}
}

// runTask runs one pass synchronously and reports how long it took.
func runTask(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		start := time.Now()

		err := runner.RunNow(c.Request.Context(), name)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"task": name, "status": "completed", "duration": time.Since(start).String()})
		case errors.Is(err, scheduler.ErrUnknownTask):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, scheduler.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"task": name, "status": "failed", "error": err.Error()})
		}
	}
}
