// Package record is the schema-described record store. Every entity is a table named after
// the entity, with an id primary key and one column per field.
package record

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const idColumn = "id"

type RecordRepository interface {
	Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error)
	FetchByID(ctx context.Context, entity, id string, fields []string) (*models.Record, error)
	Update(ctx context.Context, record *models.Record) (bool, error)
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

// Fetch returns the rows matching q in the order the database returns them.
func (r *Repository) Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Fetch")
	defer span.End()

	sb, err := buildSelect(r.db.Flavor(), q)
	if err != nil {
		return nil, err
	}
	sql, args := sb.Build()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"entity":  q.EntityName,
		"columns": len(q.Columns),
		"joins":   len(q.Joins),
	})

	start := time.Now()
	rows, err := database.ExecutorFromContext(ctx, r.db).QueryxContext(ctx, sql, args...)
	if err != nil {
		log.WithError(err).Error("Failed to fetch records")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to fetch %s records: %v", q.EntityName, err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		values := map[string]any{}
		if err := rows.MapScan(values); err != nil {
			log.WithError(err).Error("Failed to scan record")
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to scan %s record: %v", q.EntityName, err)
		}

		record := models.NewRecord(q.EntityName)
		for column, value := range values {
			record.Set(column, normalize(value))
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed to read records")
		return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to read %s records: %v", q.EntityName, err)
	}

	elapsed := time.Since(start)
	metrics.RecordFetch(q.EntityName, elapsed.Seconds())
	log.WithFields(map[string]any{
		"rows":       len(records),
		"elapsed_ms": elapsed.Milliseconds(),
	}).Debug("Fetched records")

	return records, nil
}

// FetchByID loads the given fields of one record. The id is always selected.
func (r *Repository) FetchByID(ctx context.Context, entity, id string, fields []string) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.FetchByID")
	defer span.End()

	q := query.NewQuery(entity).
		AddColumns(idColumn).
		AddColumns(fields...).
		AddCondition(idColumn, query.OperatorEq, id).
		WithLimit(1)

	records, err := r.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "%s %s not found", strings.ToLower(entity), id)
	}
	return records[0], nil
}

// Update writes the record's own values, keyed by id. It reports whether a row changed.
func (r *Repository) Update(ctx context.Context, record *models.Record) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "RecordRepository.Update")
	defer span.End()

	id := record.ID()
	if record.Entity == "" || id == "" {
		return false, httperror.NewHTTPError(http.StatusBadRequest, "record entity and id are required")
	}

	columns := []string{}
	for column := range record.Values {
		if column != idColumn {
			columns = append(columns, column)
		}
	}
	if len(columns) == 0 {
		return false, nil
	}
	sort.Strings(columns)

	ub := database.NewUpdateBuilder(r.db.Flavor())
	ub.Update(database.QuoteIdent(record.Entity))
	assignments := make([]string, 0, len(columns))
	for _, column := range columns {
		assignments = append(assignments, ub.Assign(database.QuoteIdent(column), record.Values[column]))
	}
	ub.Set(assignments...)
	ub.Where(ub.Equal(database.QuoteIdent(idColumn), id))

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"entity":  record.Entity,
		"id":      id,
		"columns": columns,
	}).Debug("Updating record")

	result, err := database.ExecutorFromContext(ctx, r.db).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update record")
		return false, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to update %s %s", record.Entity, id)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// normalize turns driver text values into strings.
func normalize(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
