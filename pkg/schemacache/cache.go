// Package schemacache shares entity metadata between generation calls through Redis.
package schemacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// SchemaService loads metadata from the source of truth.
type SchemaService interface {
	GetMetadata(ctx context.Context, entity string) (*models.ObjectMetadata, error)
}

// Cache decorates a SchemaService. Cache failures are logged and fall through to the
// underlying service so Redis is never required for a generation to succeed.
type Cache struct {
	next     SchemaService
	store    Store
	logger   ectologger.Logger
	ttl      time.Duration
	keyspace string
}

func New(next SchemaService, store Store, logger ectologger.Logger, ttl time.Duration, keyspace string) *Cache {
	return &Cache{
		next:     next,
		store:    store,
		logger:   logger,
		ttl:      ttl,
		keyspace: keyspace,
	}
}

func (c *Cache) key(entity string) string {
	return fmt.Sprintf("%s:%s", c.keyspace, strings.ToLower(entity))
}

func (c *Cache) GetMetadata(ctx context.Context, entity string) (*models.ObjectMetadata, error) {
	log := c.logger.WithContext(ctx).WithField("entity", entity)
	key := c.key(entity)

	cached, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var metadata models.ObjectMetadata
		if err := json.Unmarshal([]byte(cached), &metadata); err == nil {
			metrics.RecordSchemaCacheLookup(true)
			return &metadata, nil
		}
		log.Warn("discarding undecodable cached metadata")
	case !errors.Is(err, redis.ErrCacheMiss):
		log.WithError(err).Warn("schema cache read failed")
	}
	metrics.RecordSchemaCacheLookup(false)

	metadata, err := c.next.GetMetadata(ctx, entity)
	if err != nil || metadata == nil {
		return metadata, err
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		log.WithError(err).Warn("failed to encode metadata for cache")
		return metadata, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		log.WithError(err).Warn("schema cache write failed")
	}

	return metadata, nil
}

// Invalidate drops the cached metadata of the given entities.
func (c *Cache) Invalidate(ctx context.Context, entities ...string) error {
	if len(entities) == 0 {
		return nil
	}

	keys := make([]string, 0, len(entities))
	for _, entity := range entities {
		keys = append(keys, c.key(entity))
	}
	return c.store.Del(ctx, keys...)
}
