// Package template loads document templates and record types through the record store.
package template

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/attribute"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const (
	templateEntity   = "template"
	recordTypeEntity = "recordtype"
)

var templateColumns = []string{"id", "name", "mergefieldsinternal", "outputformat", "isactive"}

// RecordFetcher is the part of the record store the repository reads through.
type RecordFetcher interface {
	Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error)
}

type TemplateRepository interface {
	GetTemplateByID(ctx context.Context, id string) (*models.Template, error)
	GetTemplatesByIDs(ctx context.Context, ids []string) ([]*models.Template, error)
	GetRecordTypesByIDs(ctx context.Context, ids []string, fields []string) ([]*models.RecordType, error)
}

type Repository struct {
	records RecordFetcher
	logger  ectologger.Logger
}

func NewRepository(records RecordFetcher, logger ectologger.Logger) *Repository {
	return &Repository{
		records: records,
		logger:  logger,
	}
}

func (r *Repository) GetTemplateByID(ctx context.Context, id string) (*models.Template, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateRepository.GetTemplateByID")
	defer span.End()

	q := query.NewQuery(templateEntity).
		AddColumns(templateColumns...).
		AddCondition("id", query.OperatorEq, id).
		WithLimit(1)

	records, err := r.records.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "template %s not found", id)
	}

	return ToTemplate(records[0]), nil
}

func (r *Repository) GetTemplatesByIDs(ctx context.Context, ids []string) ([]*models.Template, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateRepository.GetTemplatesByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []*models.Template{}, nil
	}

	start := time.Now()
	q := query.NewQuery(templateEntity).
		AddColumns(templateColumns...).
		AddCondition("id", query.OperatorIn, ids)

	records, err := r.records.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	r.logger.WithContext(ctx).WithField("elapsed_ms", time.Since(start).Milliseconds()).Debug("Loaded templates by ids")

	return ectolinq.Map(records, ToTemplate), nil
}

// GetRecordTypesByIDs loads record types by name. Record types are referenced by their
// name, so the ids are matched against the name column.
func (r *Repository) GetRecordTypesByIDs(ctx context.Context, ids []string, fields []string) ([]*models.RecordType, error) {
	ctx, span := tracing.StartSpan(ctx, "TemplateRepository.GetRecordTypesByIDs")
	defer span.End()

	start := time.Now()
	q := query.NewQuery(recordTypeEntity).AddColumns("id", "name")
	if len(fields) > 0 {
		q.AddColumns(fields...)
	}
	q.AddCondition("name", query.OperatorIn, ids)

	records, err := r.records.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	r.logger.WithContext(ctx).WithField("elapsed_ms", time.Since(start).Milliseconds()).Debug("Loaded record types by ids")

	return ectolinq.Map(records, ToRecordType), nil
}

func ToTemplate(record *models.Record) *models.Template {
	name, _ := record.Get("name")
	mergeFields, _ := record.Get("mergefieldsinternal")
	outputFormat, _ := record.Get("outputformat")
	active, _ := record.Get("isactive")

	isActive, err := utils.AnyToType[bool](active)
	if err != nil {
		// SQLite and some drivers return booleans as integers
		flag, _ := utils.AnyToType[int64](active)
		isActive = flag != 0
	}

	return &models.Template{
		ID:                  record.ID(),
		Name:                attribute.FormatRaw(name),
		MergeFieldsInternal: attribute.FormatRaw(mergeFields),
		OutputFormat:        attribute.FormatRaw(outputFormat),
		IsActive:            isActive,
	}
}

func ToRecordType(record *models.Record) *models.RecordType {
	name, _ := record.Get("name")

	fields := map[string]any{}
	for key, value := range record.Values {
		if key != "id" && key != "name" {
			fields[key] = value
		}
	}

	return &models.RecordType{
		ID:     record.ID(),
		Name:   attribute.FormatRaw(name),
		Fields: fields,
	}
}
