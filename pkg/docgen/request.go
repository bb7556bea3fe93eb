package docgen

import (
	"strings"

	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type GenerateRequest struct {
	ObjectID                string                 `json:"object_id" validate:"required"`
	ObjectType              string                 `json:"object_type" validate:"required"`
	TemplateID              string                 `json:"template_id" validate:"required"`
	Action                  models.Action          `json:"action" validate:"required,oneof=generate regenerate preview supportingdocgenerate"`
	DocumentVersionDetailID string                 `json:"document_version_detail_id,omitempty"`
	OutputFormat            string                 `json:"output_format,omitempty"`
	FileName                string                 `json:"file_name,omitempty"`
	Version                 string                 `json:"version,omitempty"`
	VersionType             models.VersionType     `json:"version_type,omitempty"`
	ProtectionLevel         models.ProtectionLevel `json:"protection_level,omitempty"`
}

type GenerateResult struct {
	Result                  string              `json:"result"`
	FileName                string              `json:"file_name"`
	OutputFileName          string              `json:"output_file_name"`
	OutputFormat            models.OutputFormat `json:"output_format"`
	ParentID                string              `json:"parent_id"`
	ParentType              string              `json:"parent_type"`
	DocumentVersionDetailID string              `json:"document_version_detail_id,omitempty"`
	IsPreview               bool                `json:"is_preview"`
}

type FileNameResult struct {
	FileName       string              `json:"file_name"`
	OutputFileName string              `json:"output_file_name"`
	OutputFormat   models.OutputFormat `json:"output_format"`
}

// normalize trims identifiers and lowercases the action and version type.
func (r GenerateRequest) normalize() GenerateRequest {
	r.ObjectID = strings.TrimSpace(r.ObjectID)
	r.ObjectType = strings.TrimSpace(r.ObjectType)
	r.TemplateID = strings.TrimSpace(r.TemplateID)
	r.DocumentVersionDetailID = strings.TrimSpace(r.DocumentVersionDetailID)
	r.Action = models.Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	r.VersionType = models.VersionType(strings.ToLower(strings.TrimSpace(string(r.VersionType))))
	return r
}

// Validate fails on the first missing argument, before any I/O.
func (r GenerateRequest) Validate() error {
	field, invalid := utils.FirstInvalidField(r)
	if !invalid {
		return nil
	}

	if field == "action" && r.Action != "" {
		return generr.Newf(generr.KindValidation, "action '%s' is not supported", r.Action).
			AddStage(generr.StageValidation).
			AddField(field)
	}
	return generr.Validation(field)
}
