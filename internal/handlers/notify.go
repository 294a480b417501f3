package handlers

import (
	"log"

	"real-estate-cms/internal/cache"
	"real-estate-cms/internal/observability"

	"github.com/gin-gonic/gin"
)

// notifier publishes changefeed events and invalidates the cached dashboard
// aggregates after a write. Embedded by the entity handlers; a nil cache
// turns both into no-ops.
type notifier struct {
	cache *cache.Cache
}

func (n *notifier) notifyChange(c *gin.Context, entity, action, id string) {
	if n.cache == nil {
		return
	}
	n.cache.PublishChange(c.Request.Context(), entity, action, id)
	observability.RecordChangefeedEvent()
	if err := n.cache.Del(c.Request.Context(), cache.DashboardStatsKey); err != nil {
		log.Printf("Failed to invalidate dashboard cache: %v", err)
	}
}
