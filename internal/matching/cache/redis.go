package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

// KeyPrefix namespaces match entries in Redis.
const KeyPrefix = "rfq:matches:"

// Redis stores match results as JSON so replicas share them. Single-flight
// and the invalidation guard apply per process.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	group  singleflight.Group
	logger logger.Logger

	// mu guards generations and is held across the write so an Invalidate
	// either bumps the generation first or deletes what was written.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewRedis returns a Redis-backed cache. ttl <= 0 means DefaultTTL.
func NewRedis(client redis.Cmdable, ttl time.Duration, log logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client:      client,
		ttl:         ttl,
		logger:      log.WithFields(map[string]interface{}{"component": "match-cache"}),
		generations: make(map[string]uint64),
	}
}

// Key returns the Redis key for an opportunity.
func Key(opportunityID string) string {
	return KeyPrefix + opportunityID
}

func (c *Redis) get(ctx context.Context, opportunityID string) (*models.MatchResult, bool) {
	data, err := c.client.Get(ctx, Key(opportunityID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("match cache read failed", map[string]interface{}{
				"opportunityId": opportunityID,
				"error":         err,
			})
		}
		return nil, false
	}
	var r models.MatchResult
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Warn("discarding undecodable match cache entry", map[string]interface{}{
			"opportunityId": opportunityID,
			"error":         err,
		})
		return nil, false
	}
	return &r, true
}

func (c *Redis) GetOrCompute(ctx context.Context, opportunityID string, compute ComputeFunc) (*models.MatchResult, bool, error) {
	if r, ok := c.get(ctx, opportunityID); ok {
		return r, true, nil
	}

	computed := false
	v, err, _ := c.group.Do(opportunityID, func() (interface{}, error) {
		computed = true
		c.mu.Lock()
		gen := c.generations[opportunityID]
		c.mu.Unlock()

		r, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(r)
		if err != nil {
			c.logger.Error("failed to encode match result", map[string]interface{}{
				"opportunityId": opportunityID,
				"error":         err,
			})
			return r, nil
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generations[opportunityID] != gen {
			c.logger.Debug("dropping match result invalidated mid-flight", map[string]interface{}{
				"opportunityId": opportunityID,
			})
			return r, nil
		}
		if err := c.client.Set(ctx, Key(opportunityID), data, c.ttl).Err(); err != nil {
			c.logger.Warn("match cache write failed", map[string]interface{}{
				"opportunityId": opportunityID,
				"error":         err,
			})
		}
		return r, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*models.MatchResult), !computed, nil
}

func (c *Redis) Invalidate(ctx context.Context, opportunityID string) error {
	c.mu.Lock()
	c.generations[opportunityID]++
	c.mu.Unlock()
	c.group.Forget(opportunityID)
	if err := c.client.Del(ctx, Key(opportunityID)).Err(); err != nil {
		return apperrors.NewRepositoryUnavailableError("redis", err)
	}
	return nil
}
