package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scoutdeck/enricher/internal/config"
	"github.com/scoutdeck/enricher/internal/logger"
)

// NewRouter builds the HTTP surface: admin-guarded job control, the
// cron-secret-guarded scheduler trigger, the live log stream and a health
// probe.
func NewRouter(
	cfg config.ServerConfig,
	scrape *ScrapeHandler,
	stream *StreamHandler,
	log logger.Interface,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1/scrape")

	admin := v1.Group("", AdminAuth(cfg.AdminToken))
	{
		admin.POST("/start", scrape.Start)
		admin.GET("/status", scrape.Status)
		admin.POST("/process", scrape.Process)
		admin.POST("/pause", scrape.Pause)
		admin.POST("/resume", scrape.Resume)
		admin.POST("/cancel", scrape.Cancel)
		admin.GET("/logs/stream", stream.Stream)
	}

	v1.POST("/cron", CronAuth(cfg.CronSecret), scrape.Cron)

	log.Debug("router configured")

	return router
}
