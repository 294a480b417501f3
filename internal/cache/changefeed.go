package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the pub/sub channel carrying entity change notifications.
const ChangesChannel = "changes"

// ChangeEvent tells subscribers that a row of some entity changed. It carries
// enough to invalidate client-side state, not the row itself.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"` // created, updated, deleted
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishChange fans a change event out to all connected admin clients.
// Publish failures are logged and swallowed; the write itself already
// succeeded and must not be rolled back over a notification.
func (c *Cache) PublishChange(ctx context.Context, entity, action, id string) {
	event := ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("changefeed: marshal failed: %v", err)
		return
	}
	if err := c.c.Publish(ctx, ChangesChannel, data).Err(); err != nil {
		log.Printf("changefeed: publish failed: %v", err)
	}
}

// SubscribeChanges opens a subscription on the changes channel. The caller
// owns the returned PubSub and must Close it.
func (c *Cache) SubscribeChanges(ctx context.Context) *redis.PubSub {
	return c.c.Subscribe(ctx, ChangesChannel)
}
