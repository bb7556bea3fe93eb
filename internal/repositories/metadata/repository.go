// Package metadata reads entity schemas from the object_metadata and field_metadata tables.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type MetadataRepository interface {
	GetMetadata(ctx context.Context, entity string) (*models.ObjectMetadata, error)
	ListEntities(ctx context.Context) ([]string, error)
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetMetadata returns the schema of an entity. Entity names are stored lowercase.
func (r *Repository) GetMetadata(ctx context.Context, entity string) (*models.ObjectMetadata, error) {
	ctx, span := tracing.StartSpan(ctx, "MetadataRepository.GetMetadata")
	defer span.End()

	name := strings.ToLower(entity)
	log := r.logger.WithContext(ctx).WithField("entity", name)

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select("name", "label").From(objectMetadataTable).Where(sb.Equal("name", name))
	query, args := sb.Build()

	var object ObjectRow
	if err := r.db.GetContext(ctx, &object, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "no metadata for entity '%s'", name)
		}
		log.WithError(err).Error("Failed to get object metadata")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get object metadata")
	}

	fb := database.NewSelectBuilder(r.db.Flavor())
	fb.Select("object_name", "name", "type", "reference_to", "options").
		From(fieldMetadataTable).
		Where(fb.Equal("object_name", name)).
		OrderBy("name")
	query, args = fb.Build()

	var fields []FieldRow
	if err := r.db.SelectContext(ctx, &fields, query, args...); err != nil {
		log.WithError(err).Error("Failed to get field metadata")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get field metadata")
	}

	log.WithField("fields", len(fields)).Debug("Loaded entity metadata")

	return ToObjectMetadata(&object, fields), nil
}

func (r *Repository) ListEntities(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "MetadataRepository.ListEntities")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select("name").From(objectMetadataTable).OrderBy("name")
	query, args := sb.Build()

	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list entities")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entities")
	}
	return names, nil
}
