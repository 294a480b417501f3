package handlers

import (
	"io"
	"net/http"

	"real-estate-cms/internal/cache"

	"github.com/gin-gonic/gin"
)

// ChangesHandler relays the Redis changefeed to admin clients over
// server-sent events.
type ChangesHandler struct {
	cache *cache.Cache
}

// NewChangesHandler creates a new changefeed handler
func NewChangesHandler(cacheCli *cache.Cache) *ChangesHandler {
	return &ChangesHandler{cache: cacheCli}
}

// Stream holds the connection open and forwards change events as they arrive.
// The subscription is per-connection; closing the request tears it down.
func (h *ChangesHandler) Stream(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "changefeed not configured"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	sub := h.cache.SubscribeChanges(ctx)
	defer sub.Close()

	ch := sub.Channel()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", msg.Payload)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
