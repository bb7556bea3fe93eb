package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/utils"
	"github.com/labstack/echo/v4"
)

type SchemaInvalidator interface {
	Invalidate(ctx context.Context, entities ...string) error
}

type EntityLister interface {
	ListEntities(ctx context.Context) ([]string, error)
}

type InvalidateSchemaRequest struct {
	Entities []string `json:"entities" validate:"required,min=1,dive,required"`
}

// SchemaHandler lists known entities and drops cached metadata after schema changes.
type SchemaHandler struct {
	entities EntityLister
	cache    SchemaInvalidator
	logger   ectologger.Logger
}

// NewSchemaHandler creates the handler. cache is nil when the shared schema cache is disabled.
func NewSchemaHandler(entities EntityLister, cache SchemaInvalidator, logger ectologger.Logger) *SchemaHandler {
	return &SchemaHandler{
		entities: entities,
		cache:    cache,
		logger:   logger,
	}
}

// ListEntities handles GET /schema/entities
func (h *SchemaHandler) ListEntities(c echo.Context) error {
	entities, err := h.entities.ListEntities(c.Request().Context())
	if err != nil {
		return err
	}

	return SuccessResponse(c, map[string]any{"entities": entities})
}

// Invalidate handles POST /schema/invalidate
func (h *SchemaHandler) Invalidate(c echo.Context) error {
	request, err := utils.BindRequest[InvalidateSchemaRequest](c)
	if err != nil {
		return err
	}

	if h.cache == nil {
		return NoContentResponse(c)
	}

	ctx := c.Request().Context()
	if err := h.cache.Invalidate(ctx, request.Entities...); err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithField("entities", request.Entities).Info("schema cache invalidated")
	return NoContentResponse(c)
}

func (h *SchemaHandler) RegisterRoutes(g *echo.Group) {
	schema := g.Group("/schema")
	schema.GET("/entities", h.ListEntities)
	schema.POST("/invalidate", h.Invalidate)
}
