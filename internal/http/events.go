package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

// streamEvents pushes operation changes as server-sent events until the client leaves.
func (h *Handler) streamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	events := h.ops.Subscribe(ctx)
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent("operation", newEventResponse(event))
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
		}
		c.Writer.Flush()
	}
}
