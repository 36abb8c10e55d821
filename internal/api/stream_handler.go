package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/scoutdeck/enricher/internal/events"
	"github.com/scoutdeck/enricher/internal/logger"
)

// LogSubscriber provides the live event feed behind the SSE endpoint.
type LogSubscriber interface {
	Subscribe(jobID string) (<-chan events.Event, func())
}

// StreamHandler serves the live job log over Server-Sent Events.
type StreamHandler struct {
	broker LogSubscriber
	logger logger.Interface
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(broker LogSubscriber, log logger.Interface) *StreamHandler {
	return &StreamHandler{broker: broker, logger: log}
}

// Stream handles GET /api/v1/scrape/logs/stream. An optional job_id query
// parameter scopes the feed to one job.
func (h *StreamHandler) Stream(c *gin.Context) {
	jobID := c.Query("job_id")

	ch, cleanup := h.broker.Subscribe(jobID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(io.Writer) bool {
		select {
		case event, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("log", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
