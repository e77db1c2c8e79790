package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	enfservice "birthday-guard-backend/internal/features/enforcement/service"
	"birthday-guard-backend/internal/platform/sqlite"
)

// NewRouter builds the operational HTTP surface: health probes and a manual
// tick trigger. The bot has no public REST API beyond this.
func NewRouter(db *sqlite.Client, scheduler *enfservice.Scheduler, origin string, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "birthday-guard-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "database unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "birthday-guard-backend",
		})
	})

	// Runs one scanner+sweeper cycle synchronously, outside the schedule.
	router.POST("/admin/tick", func(c *gin.Context) {
		summary := scheduler.RunTick(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"processed":      summary.Processed,
			"banned":         summary.Banned,
			"removal_failed": summary.RemovalFailed,
			"skipped":        summary.Skipped,
			"failed":         summary.Failed,
			"swept":          summary.SweptBanCount,
		})
	})

	return router
}
