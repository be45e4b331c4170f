// Package cache keeps the client tracking view in Redis. Entries are keyed by
// access token and dropped whenever the quote changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hexagono/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	trackingPrefix     = "seguimiento:"
	DefaultTrackingTTL = 5 * time.Minute
)

type TrackingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTrackingCache(rdb *redis.Client, ttl time.Duration) *TrackingCache {
	if ttl <= 0 {
		ttl = DefaultTrackingTTL
	}
	return &TrackingCache{rdb: rdb, ttl: ttl}
}

func trackingKey(token string) string { return trackingPrefix + token }

// Get returns the cached view. A miss, a Redis error or a corrupt entry all
// report ok=false; callers fall back to the database.
func (c *TrackingCache) Get(ctx context.Context, token string) (dto.TrackingResponse, bool) {
	var resp dto.TrackingResponse
	if c == nil || c.rdb == nil {
		return resp, false
	}
	raw, err := c.rdb.Get(ctx, trackingKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("cache: tracking get failed")
		}
		return resp, false
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, false
	}
	return resp, true
}

// Set stores the view, best effort.
func (c *TrackingCache) Set(ctx context.Context, token string, resp dto.TrackingResponse) {
	if c == nil || c.rdb == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, trackingKey(token), b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: tracking set failed")
	}
}

func (c *TrackingCache) Invalidate(ctx context.Context, token string) {
	if c == nil || c.rdb == nil || token == "" {
		return
	}
	if err := c.rdb.Del(ctx, trackingKey(token)).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: tracking invalidate failed")
	}
}
