package models

import (
	"fmt"
	"strings"
	"time"
)

// Action is the kind of generation requested by the caller.
type Action string

const (
	ActionGenerate              Action = "generate"
	ActionRegenerate            Action = "regenerate"
	ActionPreview               Action = "preview"
	ActionSupportingDocGenerate Action = "supportingdocgenerate"
)

func (a Action) IsPreview() bool {
	return strings.EqualFold(string(a), string(ActionPreview))
}

// VersionType is the check-in type of a document version.
type VersionType string

const (
	VersionTypeMajor    VersionType = "major"
	VersionTypeMinor    VersionType = "minor"
	VersionTypeRevision VersionType = "revision"
)

// CheckinLabel is the label used in file names. Minor and revision check-ins are named
// after the party that usually makes them.
func (v VersionType) CheckinLabel() string {
	switch VersionType(strings.ToLower(string(v))) {
	case VersionTypeMajor:
		return "Major"
	case VersionTypeMinor:
		return "Negotiator"
	case VersionTypeRevision:
		return "Reviewer"
	}
	return ""
}

type ProtectionLevel string

const (
	ProtectionLevelNone           ProtectionLevel = ""
	ProtectionLevelReadOnly       ProtectionLevel = "readonly"
	ProtectionLevelCommentsOnly   ProtectionLevel = "commentsonly"
	ProtectionLevelTrackChanges   ProtectionLevel = "trackchanges"
	ProtectionLevelFormsOnly      ProtectionLevel = "formsonly"
	ProtectionLevelFullProtection ProtectionLevel = "fullprotection"
)

type OutputFormat string

const (
	OutputFormatDOCX OutputFormat = "DOCX"
	OutputFormatDOC  OutputFormat = "DOC"
	OutputFormatPDF  OutputFormat = "PDF"
	OutputFormatRTF  OutputFormat = "RTF"
)

var outputExtensions = map[OutputFormat]string{
	OutputFormatDOCX: ".docx",
	OutputFormatDOC:  ".doc",
	OutputFormatPDF:  ".pdf",
	OutputFormatRTF:  ".rtf",
}

// ParseOutputFormat normalizes a format name, defaulting to DOCX.
func ParseOutputFormat(format string) (OutputFormat, bool) {
	if strings.TrimSpace(format) == "" {
		return OutputFormatDOCX, true
	}

	normalized := OutputFormat(strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(format), ".")))
	_, ok := outputExtensions[normalized]
	return normalized, ok
}

func (f OutputFormat) Extension() string {
	return outputExtensions[f]
}

// Template is a document template with its embedded merge specification.
type Template struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	MergeFieldsInternal string `json:"merge_fields_internal"`
	OutputFormat        string `json:"output_format"`
	IsActive            bool   `json:"is_active"`
}

// DocumentVersionDetail is one checked-in version of a generated document.
type DocumentVersionDetail struct {
	ID                string    `json:"id"`
	DocumentVersionID string    `json:"document_version_id"`
	Title             string    `json:"title"`
	VersionMajor      int64     `json:"version_major"`
	VersionMinor      int64     `json:"version_minor"`
	VersionRevision   int64     `json:"version_revision"`
	UpdatedTS         time.Time `json:"updated_at"`
}

// VersionLabel renders major.minor.revision.
func (d DocumentVersionDetail) VersionLabel() string {
	return formatVersion(d.VersionMajor, d.VersionMinor, d.VersionRevision)
}

// RecordType is a record-type definition referenced by templates.
type RecordType struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}

func formatVersion(major, minor, revision int64) string {
	return fmt.Sprintf("%d.%d.%d", major, minor, revision)
}
