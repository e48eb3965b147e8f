// internal/infra/cache/gathering_cache.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"gathering_notification_service/internal/domain/gathering"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// GatheringCache is a read-through cache over a gathering.Reader. Payload
// builds hit the same few gatherings on every pass; descriptive fields change
// rarely, so a short TTL is enough. Any cache failure falls through to the
// underlying reader.
type GatheringCache struct {
	client *redis.Client
	next   gathering.Reader
	ttl    time.Duration
	logger *logrus.Entry
}

func NewGatheringCache(client *redis.Client, next gathering.Reader, ttl time.Duration, logger *logrus.Entry) *GatheringCache {
	return &GatheringCache{client: client, next: next, ttl: ttl, logger: logger}
}

func (c *GatheringCache) GetByID(ctx context.Context, id string) (*gathering.Gathering, error) {
	key := "gathering:" + id

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		g := &gathering.Gathering{}
		if err := json.Unmarshal([]byte(val), g); err == nil {
			return g, nil
		}
		// Undecodable entry; fall through and overwrite below.
	} else if err != redis.Nil {
		c.logger.WithError(err).WithField("gathering_id", id).Debug("Gathering cache read failed")
	}

	g, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(g); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WithError(err).WithField("gathering_id", id).Debug("Gathering cache write failed")
		}
	}
	return g, nil
}
