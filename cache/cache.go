// Package cache keeps follow lists in Redis. A Cache with no client is valid
// and always misses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	followersKeyPrefix = "user:%d:followers"
	followingKeyPrefix = "user:%d:following"
)

func FollowersKey(userID uint) string {
	return fmt.Sprintf(followersKeyPrefix, userID)
}

func FollowingKey(userID uint) string {
	return fmt.Sprintf(followingKeyPrefix, userID)
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// New wraps client. client may be nil.
func New(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *Cache {
	return &Cache{client: client, ttl: ttl, log: log}
}

// Connect dials the Redis server at addr (host:port or redis:// URL). An empty
// addr or an unreachable server yields a disabled cache, not an error.
func Connect(ctx context.Context, addr string, ttl time.Duration, log logrus.FieldLogger) *Cache {
	if addr == "" {
		return New(nil, ttl, log)
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.WithError(err).Warn("invalid REDIS_URL, continuing without cache")
			return New(nil, ttl, log)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, continuing without cache")
		_ = client.Close()
		return New(nil, ttl, log)
	}
	log.Info("Redis connected successfully")
	return New(client, ttl, log)
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// IDs is a cache-aside read of an id list: on a miss it calls load and
// stores the result.
func (c *Cache) IDs(ctx context.Context, key string, load func() ([]uint, error)) ([]uint, error) {
	if !c.Enabled() {
		return load()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var ids []uint
		if err := json.Unmarshal(raw, &ids); err == nil {
			return ids, nil
		}
		c.log.WithField("key", key).Warn("dropping undecodable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	ids, err := load()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ids); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return ids, nil
}

// Invalidate drops keys. Failures are logged only; entries expire anyway.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

// InvalidateEdge drops the lists an a->b edge change affects.
func (c *Cache) InvalidateEdge(ctx context.Context, followerID, followedID uint) {
	c.Invalidate(ctx, FollowingKey(followerID), FollowersKey(followedID))
}

// InvalidateUser drops both lists of userID.
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) {
	c.Invalidate(ctx, FollowingKey(userID), FollowersKey(userID))
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
