package mergedata

import (
	"context"
	"strings"
	"sync"

	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// SchemaService describes entities of the record store.
type SchemaService interface {
	GetMetadata(ctx context.Context, entity string) (*models.ObjectMetadata, error)
}

// Context is the scope of a single top level resolution. It memoizes schema lookups so
// every entity is described at most once per call. Sibling repeat rows may share it
// concurrently.
type Context struct {
	schema   SchemaService
	mu       sync.Mutex
	metadata map[string]*models.ObjectMetadata
}

func NewContext(schema SchemaService) *Context {
	return &Context{
		schema:   schema,
		metadata: make(map[string]*models.ObjectMetadata),
	}
}

// Metadata returns the schema of entity, fetching it on first use.
func (c *Context) Metadata(ctx context.Context, entity string) (*models.ObjectMetadata, error) {
	key := strings.ToLower(entity)

	c.mu.Lock()
	cached, ok := c.metadata[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	metadata, err := c.schema.GetMetadata(ctx, key)
	if err != nil {
		return nil, generr.Wrap(generr.KindConfiguration, err, "failed to load entity metadata").AddEntity(key)
	}
	if metadata == nil {
		return nil, generr.Newf(generr.KindConfiguration, "entity '%s' is not described by the schema", key).AddEntity(key)
	}

	c.mu.Lock()
	c.metadata[key] = metadata
	c.mu.Unlock()

	return metadata, nil
}

// Cached reports how many entities have been described in this scope.
func (c *Context) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.metadata)
}
