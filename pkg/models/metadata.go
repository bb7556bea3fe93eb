package models

import (
	"strings"

	"github.com/Gobusters/ectolinq"
)

// OptionEntry is one selectable value of an option field.
type OptionEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FieldMetadata is the schema of a single field.
type FieldMetadata struct {
	Name        string        `json:"name"`
	Type        FieldType     `json:"type"`
	ReferenceTo string        `json:"reference_to,omitempty"`
	Options     []OptionEntry `json:"options,omitempty"`
}

// OptionValue returns the display value for an option key.
func (f FieldMetadata) OptionValue(key string) (string, bool) {
	matches := ectolinq.Filter(f.Options, func(option OptionEntry) bool {
		return option.Key == key
	})
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Value, true
}

// ObjectMetadata is the schema of an entity.
type ObjectMetadata struct {
	Name   string          `json:"name"`
	Label  string          `json:"label,omitempty"`
	Fields []FieldMetadata `json:"fields"`
}

// Field finds a field by the trailing segment of a path, ignoring case.
func (m *ObjectMetadata) Field(path string) (FieldMetadata, bool) {
	if m == nil {
		return FieldMetadata{}, false
	}

	name := path
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		name = path[idx+1:]
	}

	matches := ectolinq.Filter(m.Fields, func(field FieldMetadata) bool {
		return strings.EqualFold(field.Name, name)
	})
	if len(matches) == 0 {
		return FieldMetadata{}, false
	}
	return matches[0], true
}

// LookupFieldTo finds the lookup field of this entity that references the given entity.
func (m *ObjectMetadata) LookupFieldTo(entity string) (FieldMetadata, bool) {
	if m == nil {
		return FieldMetadata{}, false
	}

	matches := ectolinq.Filter(m.Fields, func(field FieldMetadata) bool {
		return field.Type == FieldTypeLookup && strings.EqualFold(field.ReferenceTo, entity)
	})
	if len(matches) == 0 {
		return FieldMetadata{}, false
	}
	return matches[0], true
}
