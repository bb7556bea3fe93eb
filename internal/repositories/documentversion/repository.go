// Package documentversion reads and updates document version details through the record
// store.
package documentversion

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/attribute"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const detailEntity = "documentversiondetail"

var detailColumns = []string{"id", "documentversionid", "title", "versionmajor", "versionminor", "versionrevision", "updatedts"}

type RecordStore interface {
	Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error)
	Update(ctx context.Context, record *models.Record) (bool, error)
}

type DocumentVersionRepository interface {
	GetDetail(ctx context.Context, id string) (*models.DocumentVersionDetail, error)
	UpdateTitle(ctx context.Context, id, title string) error
}

type Repository struct {
	records RecordStore
	logger  ectologger.Logger
	now     func() time.Time
}

func NewRepository(records RecordStore, logger ectologger.Logger) *Repository {
	return &Repository{
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository) GetDetail(ctx context.Context, id string) (*models.DocumentVersionDetail, error) {
	ctx, span := tracing.StartSpan(ctx, "DocumentVersionRepository.GetDetail")
	defer span.End()

	q := query.NewQuery(detailEntity).
		AddColumns(detailColumns...).
		AddCondition("id", query.OperatorEq, id).
		WithLimit(1)

	records, err := r.records.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "document version detail %s not found", id)
	}

	detail, err := ToDetail(records[0])
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read document version detail")
		return nil, err
	}
	return detail, nil
}

// UpdateTitle renames the version detail. A missing detail is reported as not found.
func (r *Repository) UpdateTitle(ctx context.Context, id, title string) error {
	ctx, span := tracing.StartSpan(ctx, "DocumentVersionRepository.UpdateTitle")
	defer span.End()

	record := models.NewRecord(detailEntity)
	record.Set("id", id)
	record.Set("title", title)
	record.Set("updatedts", r.now())

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":    id,
		"title": title,
	}).Debug("Updating document version title")

	updated, err := r.records.Update(ctx, record)
	if err != nil {
		return err
	}
	if !updated {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "document version detail %s not found", id)
	}
	return nil
}

// ToDetail maps a record to a version detail. A version part that is not a whole number
// fails instead of reading as zero.
func ToDetail(record *models.Record) (*models.DocumentVersionDetail, error) {
	documentVersionID, _ := record.Get("documentversionid")
	title, _ := record.Get("title")
	updated, _ := record.Get("updatedts")

	detail := &models.DocumentVersionDetail{
		ID:                record.ID(),
		DocumentVersionID: attribute.FormatRaw(documentVersionID),
		Title:             attribute.FormatRaw(title),
	}

	var err error
	if detail.VersionMajor, err = versionPart(record, "versionmajor"); err != nil {
		return nil, err
	}
	if detail.VersionMinor, err = versionPart(record, "versionminor"); err != nil {
		return nil, err
	}
	if detail.VersionRevision, err = versionPart(record, "versionrevision"); err != nil {
		return nil, err
	}

	if ts, ok := updated.(time.Time); ok {
		detail.UpdatedTS = ts
	}
	return detail, nil
}

// versionPart reads a version number. Drivers may hand numeric columns back as text.
func versionPart(record *models.Record, column string) (int64, error) {
	raw, _ := record.Get(column)

	var (
		value int64
		err   error
	)
	switch v := raw.(type) {
	case string:
		value, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		value, err = strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	default:
		value, err = utils.AnyToType[int64](raw)
	}
	if err != nil {
		return 0, generr.Newf(generr.KindResolution, "invalid version number '%s'", attribute.FormatRaw(raw)).
			AddEntity(detailEntity).
			AddRecordID(record.ID()).
			AddField(column)
	}
	return value, nil
}
