package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a JSON-backed Redis cache for read projections of type T, keyed
// under a fixed prefix. A nil *ViewCache is valid and behaves as an always-miss
// cache, which is how the services run without Redis.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewViewCache returns nil when client is nil. Pass ttl 0 for keys that never expire.
func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	if client == nil {
		return nil
	}
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *ViewCache[T]) key(id string) string {
	return c.prefix + id
}

// Get returns (nil, false) on a miss, a Redis failure, or a value that no
// longer decodes into T.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Printf("ViewCache: read error for key %s: %v", c.key(id), err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("ViewCache: dropping undecodable key %s: %v", c.key(id), err)
		c.Delete(ctx, id)
		return nil, false
	}
	return &v, true
}

// Set stores value under id. Write failures are logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	if c == nil || value == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.key(id), err)
		return
	}
	if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		log.Printf("ViewCache: write error for key %s: %v", c.key(id), err)
	}
}

// generationTTL bounds how long a fence outlives its last eviction.
const generationTTL = 24 * time.Hour

func (c *ViewCache[T]) generationKey(id string) string {
	return c.prefix + id + ":gen"
}

// Generation returns the eviction counter of id. Read it before loading the
// value from the source of truth and hand it to SetIfGeneration.
func (c *ViewCache[T]) Generation(ctx context.Context, id string) int64 {
	if c == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, c.generationKey(id)).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		log.Printf("ViewCache: generation read error for key %s: %v", c.key(id), err)
		return -1
	}
	return gen
}

// SetIfGeneration stores value only if id has not been evicted since gen was
// read, so a slow reader cannot put back a value older than the eviction.
func (c *ViewCache[T]) SetIfGeneration(ctx context.Context, id string, gen int64, value *T) bool {
	if c == nil || value == nil || gen < 0 {
		return false
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", c.key(id), err)
		return false
	}

	genKey := c.generationKey(id)
	stored := false
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.key(id), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if err != nil && !errors.Is(err, goredis.TxFailedErr) {
		log.Printf("ViewCache: conditional write error for key %s: %v", c.key(id), err)
	}
	return stored
}

// Evict deletes id and advances its generation so that fills started before
// the eviction are discarded.
func (c *ViewCache[T]) Evict(ctx context.Context, id string) {
	if c == nil {
		return
	}
	genKey := c.generationKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, c.key(id))
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
	if err != nil {
		log.Printf("ViewCache: evict error for key %s: %v", c.key(id), err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		log.Printf("ViewCache: delete error for key %s: %v", c.key(id), err)
	}
}
