// Package filename renders document file names from placeholder templates.
package filename

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/attribute"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultTemplate = "%:Name%_%action%_%templatename%_%timestamp[MM-dd-yyyy]%_%vx%"
	MaxLength       = 255
)

const invalidCharacters = ";\\/:*?\"<>|&'"

// FieldFetcher loads selected fields of one record.
type FieldFetcher interface {
	FetchByID(ctx context.Context, entity, id string, fields []string) (*models.Record, error)
}

type Params struct {
	Template     string
	Action       models.Action
	ContextID    string
	ContextType  string
	TemplateName string
	Version      string
	VersionType  models.VersionType
}

type Engine struct {
	logger  ectologger.Logger
	fetcher FieldFetcher
	now     func() time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock used for timestamp tokens.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(logger ectologger.Logger, fetcher FieldFetcher, opts ...Option) *Engine {
	e := &Engine{
		logger:  logger,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build renders and sanitizes the file name.
func (e *Engine) Build(ctx context.Context, params Params) (string, error) {
	rendered, err := e.Render(ctx, params)
	if err != nil {
		return "", err
	}
	return Sanitize(rendered), nil
}

// Render substitutes the template's tokens without sanitizing the result.
func (e *Engine) Render(ctx context.Context, params Params) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "filename.Render")
	defer span.End()

	template := params.Template
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}

	segments := parse(template)

	record, err := e.fetchContextFields(ctx, params, segments)
	if err != nil {
		return "", err
	}

	now := e.now().UTC()
	var out strings.Builder
	for _, segment := range segments {
		if !segment.token {
			out.WriteString(segment.text)
			continue
		}

		value, ok := e.substitute(ctx, segment.name, params, record, now)
		if !ok {
			out.WriteString(segment.text)
			continue
		}
		out.WriteString(value)
	}

	return out.String(), nil
}

// fetchContextFields loads every ":Field" referenced by the template in one fetch.
func (e *Engine) fetchContextFields(ctx context.Context, params Params, segments []segment) (*models.Record, error) {
	fields := []string{}
	for _, segment := range segments {
		if !segment.token || !strings.HasPrefix(segment.name, ":") {
			continue
		}
		field := strings.ToLower(strings.TrimPrefix(segment.name, ":"))
		if field != "" && !ectolinq.Contains(fields, field) {
			fields = append(fields, field)
		}
	}

	if len(fields) == 0 {
		return nil, nil
	}

	if params.ContextID == "" || params.ContextType == "" {
		return nil, generr.Newf(generr.KindValidation, "file name template references record fields but no record was given").
			AddStage(generr.StageFileName)
	}

	record, err := e.fetcher.FetchByID(ctx, params.ContextType, params.ContextID, fields)
	if err != nil {
		return nil, generr.Wrap(generr.KindResolution, err, "failed to load file name fields").
			AddStage(generr.StageFileName).
			AddEntity(strings.ToLower(params.ContextType)).
			AddRecordID(params.ContextID)
	}
	return record, nil
}

func (e *Engine) substitute(ctx context.Context, name string, params Params, record *models.Record, now time.Time) (string, bool) {
	if field, ok := strings.CutPrefix(name, ":"); ok {
		value, _ := record.Get(field)
		return attribute.FormatRaw(value), true
	}

	lower := strings.ToLower(name)
	switch lower {
	case "action":
		return string(params.Action), true
	case "templatename":
		return params.TemplateName, true
	case "checkintype":
		return params.VersionType.CheckinLabel(), true
	case "vx":
		return params.Version, true
	}

	if rest, ok := strings.CutPrefix(lower, "timestamp"); ok && (rest == "" || strings.HasPrefix(rest, "[")) {
		// the format is case sensitive, so cut it from the original token
		format := name[len("timestamp"):]
		return e.timestamp(ctx, format, now), true
	}

	return "", false
}

// timestamp formats now with a bracketed format. A malformed format yields an empty string
// rather than failing the generation.
func (e *Engine) timestamp(ctx context.Context, bracketed string, now time.Time) string {
	var formatted string
	var err error

	pattern, ok := strings.CutPrefix(bracketed, "[")
	if ok {
		pattern, ok = strings.CutSuffix(pattern, "]")
	}
	if !ok {
		err = errMalformedBrackets
	} else {
		formatted, err = FormatTimestamp(now, pattern)
	}

	if err != nil {
		metrics.RecordMalformedTimestamp()
		e.logger.WithContext(ctx).WithError(err).WithField("format", bracketed).Debug("ignoring malformed timestamp format")
		return ""
	}
	return formatted
}

// Sanitize makes a file name safe for file systems: it strips reserved characters,
// collapses doubled underscores and truncates to MaxLength characters.
func Sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidCharacters, r) {
			return -1
		}
		return r
	}, name)

	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}

	if utf8.RuneCountInString(name) > MaxLength {
		name = string([]rune(name)[:MaxLength])
	}
	return name
}
