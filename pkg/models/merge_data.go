package models

import (
	"strings"
)

// DataSpec is one field to resolve on a merge data node.
type DataSpec struct {
	Name  string    `json:"Name" validate:"required"`
	Type  FieldType `json:"Type"`
	IsID  bool      `json:"IsId,omitempty"`
	Value *string   `json:"Value,omitempty"`
}

// MergeData describes one entity's worth of fields for a document.
//
// Lookups are to-one relationships fetched in the same query as their parent. Each
// RepeatSet entry is a to-many relationship: its first Lookups element is the shape that
// is replicated once per matched child row.
type MergeData struct {
	TypeName       string       `json:"TypeName" validate:"required"`
	Name           string       `json:"Name,omitempty"`
	ParentTypeName string       `json:"ParentTypeName,omitempty"`
	Fields         []DataSpec   `json:"Fields,omitempty"`
	Lookups        []*MergeData `json:"Lookups,omitempty"`
	RepeatSet      []*MergeData `json:"RepeatSet,omitempty"`
}

// IDField returns the node's ID-marker field: the one flagged IsID, otherwise the first.
func (m *MergeData) IDField() (DataSpec, bool) {
	if m == nil || len(m.Fields) == 0 {
		return DataSpec{}, false
	}

	for _, field := range m.Fields {
		if field.IsID {
			return field, true
		}
	}

	return m.Fields[0], true
}

// IDFieldName is the ID-marker field name, defaulting to "id".
func (m *MergeData) IDFieldName() string {
	field, ok := m.IDField()
	if !ok || field.Name == "" {
		return "id"
	}
	return strings.ToLower(field.Name)
}

// IsEmpty reports whether the node carries nothing worth serializing.
func (m *MergeData) IsEmpty() bool {
	return m == nil || (len(m.Fields) == 0 && len(m.Lookups) == 0 && len(m.RepeatSet) == 0)
}

// HasNested reports whether the node has its own lookups or repeat sets.
func (m *MergeData) HasNested() bool {
	return m != nil && (len(m.Lookups) > 0 || len(m.RepeatSet) > 0)
}

// Clone deep-copies the node, including resolved values.
func (m *MergeData) Clone() *MergeData {
	if m == nil {
		return nil
	}

	clone := &MergeData{
		TypeName:       m.TypeName,
		Name:           m.Name,
		ParentTypeName: m.ParentTypeName,
	}

	if m.Fields != nil {
		clone.Fields = make([]DataSpec, len(m.Fields))
		for i, field := range m.Fields {
			clone.Fields[i] = field
			if field.Value != nil {
				value := *field.Value
				clone.Fields[i].Value = &value
			}
		}
	}

	clone.Lookups = cloneNodes(m.Lookups)
	clone.RepeatSet = cloneNodes(m.RepeatSet)

	return clone
}

func cloneNodes(nodes []*MergeData) []*MergeData {
	if nodes == nil {
		return nil
	}

	clones := make([]*MergeData, len(nodes))
	for i, node := range nodes {
		clones[i] = node.Clone()
	}
	return clones
}

// FieldValue returns the resolved value of the named field.
func (m *MergeData) FieldValue(name string) (string, bool) {
	for _, field := range m.Fields {
		if strings.EqualFold(field.Name, name) && field.Value != nil {
			return *field.Value, true
		}
	}
	return "", false
}

// MergeRequest is the complete document generation specification sent to the merge service.
type MergeRequest struct {
	OutputFormat            OutputFormat    `json:"OutputFormat,omitempty"`
	OutputFileName          string          `json:"OutputFileName,omitempty"`
	FileName                string          `json:"FileName,omitempty"`
	ParentID                string          `json:"ParentId,omitempty"`
	ParentType              string          `json:"ParentType,omitempty"`
	DocumentVersionDetailID string          `json:"DocumentVersionDetailId,omitempty"`
	Version                 string          `json:"Version,omitempty"`
	IsPreview               bool            `json:"IsPreview,omitempty"`
	ProtectionLevel         ProtectionLevel `json:"ProtectionLevel,omitempty"`
	Password                string          `json:"Password,omitempty"`
	HeaderText              string          `json:"HeaderText,omitempty"`
	FooterText              string          `json:"FooterText,omitempty"`
	MergeData               *MergeData      `json:"MergeData"`
}
