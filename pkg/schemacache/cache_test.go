package schemacache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return value, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprintf("%v", v)
	}
	m.ttls[key] = expiration
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type countingSchema struct {
	calls int
	err   error
}

func (c *countingSchema) GetMetadata(_ context.Context, entity string) (*models.ObjectMetadata, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &models.ObjectMetadata{
		Name: entity,
		Fields: []models.FieldMetadata{
			{Name: "status", Type: models.FieldTypeOption, Options: []models.OptionEntry{{Key: "2", Value: "Draft"}}},
		},
	}, nil
}

func newTestCache(store Store, schema SchemaService) *Cache {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return New(schema, store, logger, time.Minute, "fern:schema")
}

func TestGetMetadataCachesAcrossCalls(t *testing.T) {
	store := newMemoryStore()
	schema := &countingSchema{}
	cache := newTestCache(store, schema)

	first, err := cache.GetMetadata(context.Background(), "Agreement")
	require.NoError(t, err)
	second, err := cache.GetMetadata(context.Background(), "agreement")
	require.NoError(t, err)

	assert.Equal(t, 1, schema.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, store.ttls["fern:schema:agreement"])

	value, ok := second.Fields[0].OptionValue("2")
	assert.True(t, ok)
	assert.Equal(t, "Draft", value)
}

func TestGetMetadataFallsThroughOnStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	schema := &countingSchema{}
	cache := newTestCache(store, schema)

	metadata, err := cache.GetMetadata(context.Background(), "agreement")
	require.NoError(t, err)
	assert.Equal(t, "agreement", metadata.Name)
	assert.Equal(t, 1, schema.calls)
}

func TestGetMetadataDiscardsCorruptEntries(t *testing.T) {
	store := newMemoryStore()
	store.values["fern:schema:agreement"] = "{not json"
	schema := &countingSchema{}
	cache := newTestCache(store, schema)

	metadata, err := cache.GetMetadata(context.Background(), "agreement")
	require.NoError(t, err)
	assert.Equal(t, "agreement", metadata.Name)
	assert.Equal(t, 1, schema.calls)
	assert.NotEqual(t, "{not json", store.values["fern:schema:agreement"])
}

func TestGetMetadataDoesNotCacheErrors(t *testing.T) {
	store := newMemoryStore()
	schema := &countingSchema{err: errors.New("unknown entity")}
	cache := newTestCache(store, schema)

	_, err := cache.GetMetadata(context.Background(), "ghost")
	require.Error(t, err)
	assert.Empty(t, store.values)
}

func TestInvalidate(t *testing.T) {
	store := newMemoryStore()
	schema := &countingSchema{}
	cache := newTestCache(store, schema)

	_, err := cache.GetMetadata(context.Background(), "agreement")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), "Agreement"))

	_, err = cache.GetMetadata(context.Background(), "agreement")
	require.NoError(t, err)
	assert.Equal(t, 2, schema.calls)
}
