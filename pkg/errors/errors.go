package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies where a generation failure came from.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindResolution    Kind = "resolution"
	KindExternal      Kind = "external"
)

const (
	StageValidation   = "validation"
	StageTemplate     = "template"
	StageMergeData    = "merge data"
	StageRepeatSet    = "repeat set"
	StageFileName     = "file name"
	StageVersion      = "document version"
	StageMergeService = "merge service"
)

// GenerationError carries the path to the failing stage, entity and field of a document
// generation along with the original cause.
type GenerationError struct {
	Kind     Kind
	Stage    string
	Entity   string
	Field    string
	RecordID string
	Message  string
	Cause    error
}

func New(kind Kind, msg string) *GenerationError {
	return &GenerationError{
		Kind:    kind,
		Message: msg,
	}
}

func Newf(kind Kind, format string, args ...any) *GenerationError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches a message to err. An existing GenerationError is extended in place so the
// innermost stage information survives.
func Wrap(kind Kind, err error, msg string) *GenerationError {
	if err == nil {
		return nil
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	return &GenerationError{
		Kind:    kind,
		Message: msg,
		Cause:   err,
	}
}

func Validation(argument string) *GenerationError {
	return Newf(KindValidation, "%s is required", argument).AddStage(StageValidation).AddField(argument)
}

func (e *GenerationError) Error() string {
	path := []string{}
	if e.Stage != "" {
		path = append(path, fmt.Sprintf("stage '%s'", e.Stage))
	}
	if e.Entity != "" {
		path = append(path, fmt.Sprintf("entity '%s'", e.Entity))
	}
	if e.RecordID != "" {
		path = append(path, fmt.Sprintf("record '%s'", e.RecordID))
	}
	if e.Field != "" {
		path = append(path, fmt.Sprintf("field '%s'", e.Field))
	}

	message := e.Message
	if e.Cause != nil {
		if message == "" {
			message = e.Cause.Error()
		} else {
			message = message + ": " + e.Cause.Error()
		}
	}

	if len(path) == 0 {
		return message
	}

	return strings.Join(path, " -> ") + ": " + message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// AddStage sets the stage unless an inner catch site already named one.
func (e *GenerationError) AddStage(stage string) *GenerationError {
	if e.Stage == "" {
		e.Stage = stage
	}
	return e
}

func (e *GenerationError) AddEntity(entity string) *GenerationError {
	if e.Entity == "" {
		e.Entity = entity
	}
	return e
}

func (e *GenerationError) AddField(field string) *GenerationError {
	if e.Field == "" {
		e.Field = field
	}
	return e
}

func (e *GenerationError) AddRecordID(id string) *GenerationError {
	if e.RecordID == "" {
		e.RecordID = id
	}
	return e
}

func (e *GenerationError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	case KindExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (e *GenerationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).
		AddMetaValue("kind", string(e.Kind)).
		AddMetaValue("stage", e.Stage).
		AddMetaValue("entity", e.Entity).
		AddMetaValue("field", e.Field).
		AddMetaValue("record_id", e.RecordID)
}

func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// AsGenerationError returns the GenerationError in err's chain.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	ok := errors.As(err, &genErr)
	return genErr, ok
}

// IsKind reports whether err carries a GenerationError of the given kind.
func IsKind(err error, kind Kind) bool {
	genErr, ok := AsGenerationError(err)
	return ok && genErr.Kind == kind
}
