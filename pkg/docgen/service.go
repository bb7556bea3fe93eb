// Package docgen orchestrates document generation: it binds the template's merge request
// to a record, names the output, resolves the merge data and dispatches the request to the
// merge service.
package docgen

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/internal/repositories/settings"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/filename"
	"github.com/Ramsey-B/fern/pkg/mergedata"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/google/uuid"
)

type TemplateStore interface {
	GetTemplateByID(ctx context.Context, id string) (*models.Template, error)
}

type VersionStore interface {
	GetDetail(ctx context.Context, id string) (*models.DocumentVersionDetail, error)
	UpdateTitle(ctx context.Context, id, title string) error
}

type DataResolver interface {
	Resolve(ctx context.Context, rc *mergedata.Context, root *models.MergeData, anchorID string) (*models.MergeData, error)
}

type FileNamer interface {
	Build(ctx context.Context, params filename.Params) (string, error)
}

type Merger interface {
	Merge(ctx context.Context, request *models.MergeRequest) (string, error)
}

type Publisher interface {
	PublishDocumentGenerated(ctx context.Context, event *events.DocumentGenerated) error
}

// Dependencies are the collaborators of the service. Settings and Publisher are optional.
type Dependencies struct {
	Templates TemplateStore
	Versions  VersionStore
	Schema    mergedata.SchemaService
	Resolver  DataResolver
	FileNames FileNamer
	Merger    Merger
	Settings  settings.Source
	Publisher Publisher
}

type Config struct {
	DefaultFileNameFormat string
}

type Service struct {
	logger ectologger.Logger
	deps   Dependencies
	config Config
	newID  func() string
}

func NewService(logger ectologger.Logger, deps Dependencies, config Config) *Service {
	if config.DefaultFileNameFormat == "" {
		config.DefaultFileNameFormat = filename.DefaultTemplate
	}

	return &Service{
		logger: logger,
		deps:   deps,
		config: config,
		newID:  uuid.NewString,
	}
}

// generation carries the state of one call between steps.
type generation struct {
	request  GenerateRequest
	template *models.Template
	merge    *models.MergeRequest
	detail   *models.DocumentVersionDetail
	version  string
	fileName string
	format   models.OutputFormat
}

// Generate runs one document generation. The first failing step aborts the call.
func (s *Service) Generate(ctx context.Context, request GenerateRequest) (result *GenerateResult, err error) {
	request = request.normalize()
	ctx = fernctx.SetGeneration(ctx, string(request.Action), request.TemplateID)
	ctx, span := tracing.StartSpan(ctx, "docgen.Generate")
	defer span.End()

	start := time.Now()
	log := s.logger.WithContext(ctx).WithFields(fernctx.LogFields(ctx)).WithFields(map[string]any{
		"object_id":   request.ObjectID,
		"object_type": request.ObjectType,
	})

	defer func() {
		s.recordOutcome(string(request.Action), start, err)
		if err != nil {
			log.WithError(err).Warn("document generation failed")
		}
	}()

	gen, err := s.prepare(ctx, request)
	if err != nil {
		return nil, err
	}

	// the title follows the computed name even if a later step fails
	if gen.detail != nil {
		if err := s.deps.Versions.UpdateTitle(ctx, gen.detail.ID, gen.fileName); err != nil {
			return nil, generr.Wrap(generr.KindResolution, err, "failed to update document version title").
				AddStage(generr.StageVersion).
				AddRecordID(gen.detail.ID)
		}
	}

	if err := s.applySettings(ctx, gen.merge); err != nil {
		return nil, err
	}

	rc := mergedata.NewContext(s.deps.Schema)
	resolved, err := s.deps.Resolver.Resolve(ctx, rc, gen.merge.MergeData, request.ObjectID)
	if err != nil {
		return nil, generr.Wrap(generr.KindResolution, err, "failed to resolve merge data").AddStage(generr.StageMergeData)
	}
	gen.merge.MergeData = resolved

	value, err := s.deps.Merger.Merge(ctx, gen.merge)
	if err != nil {
		return nil, generr.Wrap(generr.KindExternal, err, "merge service failed").AddStage(generr.StageMergeService)
	}

	result = &GenerateResult{
		Result:                  value,
		FileName:                gen.merge.FileName,
		OutputFileName:          gen.merge.OutputFileName,
		OutputFormat:            gen.merge.OutputFormat,
		ParentID:                gen.merge.ParentID,
		ParentType:              gen.merge.ParentType,
		DocumentVersionDetailID: gen.merge.DocumentVersionDetailID,
		IsPreview:               gen.merge.IsPreview,
	}

	s.publish(ctx, request, result)

	log.WithFields(map[string]any{
		"file_name":      result.OutputFileName,
		"metadata_cache": rc.Cached(),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	}).Info("document generated")

	return result, nil
}

// FileName computes the name a generation would use without updating any record.
func (s *Service) FileName(ctx context.Context, request GenerateRequest) (*FileNameResult, error) {
	request = request.normalize()
	ctx = fernctx.SetGeneration(ctx, string(request.Action), request.TemplateID)
	ctx, span := tracing.StartSpan(ctx, "docgen.FileName")
	defer span.End()

	gen, err := s.prepare(ctx, request)
	if err != nil {
		return nil, err
	}

	return &FileNameResult{
		FileName:       gen.merge.FileName,
		OutputFileName: gen.merge.OutputFileName,
		OutputFormat:   gen.merge.OutputFormat,
	}, nil
}

// prepare validates the request, loads and decodes the template, binds the parent and
// version, and computes the output name and format. It has no side effects.
func (s *Service) prepare(ctx context.Context, request GenerateRequest) (*generation, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	gen := &generation{request: request, version: request.Version}

	template, err := s.deps.Templates.GetTemplateByID(ctx, request.TemplateID)
	if err != nil {
		return nil, generr.Wrap(loadFailureKind(err), err, "failed to load template").
			AddStage(generr.StageTemplate).
			AddRecordID(request.TemplateID)
	}
	gen.template = template

	merge, err := decodeMergeRequest(template)
	if err != nil {
		return nil, err
	}
	gen.merge = merge

	if err := s.bind(ctx, gen); err != nil {
		return nil, err
	}

	name, err := s.fileName(ctx, gen)
	if err != nil {
		return nil, err
	}
	gen.fileName = name

	format, ok := models.ParseOutputFormat(firstNonEmpty(request.OutputFormat, template.OutputFormat, string(merge.OutputFormat)))
	if !ok {
		return nil, generr.Newf(generr.KindValidation, "output format '%s' is not supported", firstNonEmpty(request.OutputFormat, template.OutputFormat, string(merge.OutputFormat))).
			AddStage(generr.StageValidation).
			AddField("output_format")
	}
	gen.format = format

	merge.FileName = name
	merge.OutputFileName = name + format.Extension()
	merge.OutputFormat = format
	if request.ProtectionLevel != "" {
		merge.ProtectionLevel = request.ProtectionLevel
	}

	return gen, nil
}

// decodeMergeRequest reads the merge request embedded in the template.
func decodeMergeRequest(template *models.Template) (*models.MergeRequest, error) {
	if strings.TrimSpace(template.MergeFieldsInternal) == "" {
		return nil, generr.Newf(generr.KindConfiguration, "template '%s' has no merge fields", template.Name).
			AddStage(generr.StageTemplate).
			AddRecordID(template.ID)
	}

	var merge models.MergeRequest
	if err := json.Unmarshal([]byte(template.MergeFieldsInternal), &merge); err != nil {
		return nil, generr.Wrap(generr.KindConfiguration, err, "template merge fields are not valid").
			AddStage(generr.StageTemplate).
			AddRecordID(template.ID)
	}

	if merge.MergeData == nil || merge.MergeData.TypeName == "" {
		return nil, generr.Newf(generr.KindConfiguration, "template '%s' has no merge data", template.Name).
			AddStage(generr.StageTemplate).
			AddRecordID(template.ID)
	}

	return &merge, nil
}

// bind points the request at its parent. Previews get a transient parent and never read
// or write document versions.
func (s *Service) bind(ctx context.Context, gen *generation) error {
	request := gen.request
	merge := gen.merge

	merge.ParentType = request.ObjectType

	if request.Action.IsPreview() {
		merge.ParentID = s.newID()
		merge.IsPreview = true
		merge.DocumentVersionDetailID = ""
		return nil
	}

	merge.ParentID = request.ObjectID
	merge.IsPreview = false

	if request.DocumentVersionDetailID == "" {
		return nil
	}

	detail, err := s.deps.Versions.GetDetail(ctx, request.DocumentVersionDetailID)
	if err != nil {
		return generr.Wrap(loadFailureKind(err), err, "failed to load document version").
			AddStage(generr.StageVersion).
			AddRecordID(request.DocumentVersionDetailID)
	}

	gen.detail = detail
	merge.DocumentVersionDetailID = detail.ID
	if gen.version == "" {
		gen.version = detail.VersionLabel()
	}
	merge.Version = gen.version
	return nil
}

// fileName uses the caller's name when given, otherwise renders the configured template.
// Both are sanitized.
func (s *Service) fileName(ctx context.Context, gen *generation) (string, error) {
	if strings.TrimSpace(gen.request.FileName) != "" {
		return filename.Sanitize(gen.request.FileName), nil
	}

	format := s.config.DefaultFileNameFormat
	if s.deps.Settings != nil {
		configured, found, err := settings.GetSetting[string](ctx, s.deps.Settings, settings.KeyFileNameFormat)
		if err != nil {
			return "", generr.Wrap(generr.KindConfiguration, err, "failed to read file name format").AddStage(generr.StageFileName)
		}
		if found && strings.TrimSpace(configured) != "" {
			format = configured
		}
	}

	name, err := s.deps.FileNames.Build(ctx, filename.Params{
		Template:     format,
		Action:       gen.request.Action,
		ContextID:    gen.request.ObjectID,
		ContextType:  gen.request.ObjectType,
		TemplateName: gen.template.Name,
		Version:      gen.version,
		VersionType:  gen.request.VersionType,
	})
	if err != nil {
		return "", generr.Wrap(generr.KindResolution, err, "failed to compute file name").AddStage(generr.StageFileName)
	}
	return name, nil
}

// applySettings copies password and header/footer settings onto the request.
func (s *Service) applySettings(ctx context.Context, merge *models.MergeRequest) error {
	if s.deps.Settings == nil {
		return nil
	}

	password, found, err := settings.GetSetting[string](ctx, s.deps.Settings, settings.KeyDocumentPassword)
	if err != nil {
		return settingError(err)
	}
	if found && password != "" {
		merge.Password = password
	}

	includeHeader, _, err := settings.GetSetting[bool](ctx, s.deps.Settings, settings.KeyIncludeHeader)
	if err != nil {
		return settingError(err)
	}
	if includeHeader {
		header, _, err := settings.GetSetting[string](ctx, s.deps.Settings, settings.KeyHeaderText)
		if err != nil {
			return settingError(err)
		}
		merge.HeaderText = header
	} else {
		merge.HeaderText = ""
	}

	includeFooter, _, err := settings.GetSetting[bool](ctx, s.deps.Settings, settings.KeyIncludeFooter)
	if err != nil {
		return settingError(err)
	}
	if includeFooter {
		footer, _, err := settings.GetSetting[string](ctx, s.deps.Settings, settings.KeyFooterText)
		if err != nil {
			return settingError(err)
		}
		merge.FooterText = footer
	} else {
		merge.FooterText = ""
	}

	return nil
}

func settingError(err error) error {
	return generr.Wrap(generr.KindConfiguration, err, "failed to read product settings").AddStage(generr.StageTemplate)
}

func (s *Service) publish(ctx context.Context, request GenerateRequest, result *GenerateResult) {
	if s.deps.Publisher == nil {
		return
	}

	event := events.NewDocumentGenerated()
	event.TenantID = fernctx.GetTenantID(ctx)
	event.RequestID = fernctx.GetRequestID(ctx)
	event.Action = string(request.Action)
	event.TemplateID = request.TemplateID
	event.ObjectID = request.ObjectID
	event.ObjectType = request.ObjectType
	event.DocumentVersionDetailID = result.DocumentVersionDetailID
	event.FileName = result.OutputFileName
	event.OutputFormat = string(result.OutputFormat)
	event.IsPreview = result.IsPreview
	event.Result = result.Result
	event.TraceID = tracing.GetTraceID(ctx)
	event.SpanID = tracing.GetSpanID(ctx)

	// the document exists at this point, so a lost event is logged rather than returned
	if err := s.deps.Publisher.PublishDocumentGenerated(ctx, event); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("event_id", event.EventID).Error("failed to publish document event")
	}
}

func (s *Service) recordOutcome(action string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		if genErr, ok := generr.AsGenerationError(err); ok {
			metrics.RecordGenerationFailure(string(genErr.Kind), genErr.Stage)
		} else {
			metrics.RecordGenerationFailure("unknown", "")
		}
	}
	metrics.RecordGeneration(action, status, time.Since(start).Seconds())
}

// loadFailureKind treats a missing template or version as misconfiguration and anything
// else as a failed read.
func loadFailureKind(err error) generr.Kind {
	if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
		return generr.KindConfiguration
	}
	return generr.KindResolution
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
