// Package settings reads product settings. Values are JSON; a dotted key such as
// "header.text" reads into the JSON of the "header" setting when no setting has the full
// name.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/attribute"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
	"github.com/jmespath/go-jmespath"
)

const settingEntity = "productsetting"

const (
	KeyFileNameFormat   = "FileNameFormat"
	KeyDocumentPassword = "DocumentPassword"
	KeyIncludeHeader    = "IncludeHeader"
	KeyIncludeFooter    = "IncludeFooter"
	KeyHeaderText       = "HeaderText"
	KeyFooterText       = "FooterText"
)

type RecordFetcher interface {
	Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error)
}

// Source looks up raw setting values.
type Source interface {
	Lookup(ctx context.Context, key string) (any, bool, error)
}

type Repository struct {
	records RecordFetcher
	logger  ectologger.Logger
	mu      sync.RWMutex
	paths   map[string]*jmespath.JMESPath
}

func NewRepository(records RecordFetcher, logger ectologger.Logger) *Repository {
	return &Repository{
		records: records,
		logger:  logger,
		paths:   make(map[string]*jmespath.JMESPath),
	}
}

// Lookup returns the decoded value of a setting and whether it exists.
func (r *Repository) Lookup(ctx context.Context, key string) (any, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "SettingsRepository.Lookup")
	defer span.End()

	name := strings.ToLower(strings.TrimSpace(key))
	if name == "" {
		return nil, false, httperror.NewHTTPError(http.StatusBadRequest, "setting key is required")
	}

	root, path, nested := strings.Cut(name, ".")
	candidates := []string{name}
	if nested {
		candidates = append(candidates, root)
	}

	q := query.NewQuery(settingEntity).
		AddColumns("name", "value").
		AddCondition("name", query.OperatorIn, candidates)

	records, err := r.records.Fetch(ctx, q)
	if err != nil {
		return nil, false, err
	}

	byName := func(wanted string) (*models.Record, bool) {
		matches := ectolinq.Filter(records, func(record *models.Record) bool {
			value, _ := record.Get("name")
			return strings.EqualFold(attribute.FormatRaw(value), wanted)
		})
		if len(matches) == 0 {
			return nil, false
		}
		return matches[0], true
	}

	if record, ok := byName(name); ok {
		return decode(record), true, nil
	}

	if !nested {
		return nil, false, nil
	}

	record, ok := byName(root)
	if !ok {
		return nil, false, nil
	}

	value, err := r.search(path, decode(record))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("Failed to read nested setting")
		return nil, false, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "invalid setting path '%s'", key)
	}
	return value, value != nil, nil
}

func (r *Repository) search(path string, data any) (any, error) {
	compiled, err := r.compile(path)
	if err != nil {
		return nil, err
	}
	return compiled.Search(data)
}

func (r *Repository) compile(path string) (*jmespath.JMESPath, error) {
	r.mu.RLock()
	compiled, ok := r.paths[path]
	r.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	// quote each segment so setting names with dashes or spaces stay identifiers
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		segments[i] = fmt.Sprintf("%q", segment)
	}

	compiled, err := jmespath.Compile(strings.Join(segments, "."))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.paths[path] = compiled
	r.mu.Unlock()
	return compiled, nil
}

// decode parses the stored JSON value. Values that are not JSON are returned as text.
func decode(record *models.Record) any {
	raw, _ := record.Get("value")
	if raw == nil {
		return nil
	}

	text := attribute.FormatRaw(raw)
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return text
	}
	return value
}

// GetSetting reads a setting as T. A missing setting returns the zero value and false.
func GetSetting[T any](ctx context.Context, source Source, key string) (T, bool, error) {
	var zero T

	raw, found, err := source.Lookup(ctx, key)
	if err != nil || !found {
		return zero, false, err
	}

	value, err := utils.AnyToType[T](raw)
	if err != nil {
		return zero, false, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "setting '%s': %v", key, err)
	}
	return value, true, nil
}
