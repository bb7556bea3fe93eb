package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Record is a row returned by the record store.
//
// Values holds the entity's own columns. Joined holds the columns of joined entities
// keyed by join alias, so a flattened join row keeps both levels apart.
type Record struct {
	Entity string                    `json:"entity"`
	Values map[string]any            `json:"values"`
	Joined map[string]map[string]any `json:"joined,omitempty"`
}

func NewRecord(entity string) *Record {
	return &Record{
		Entity: strings.ToLower(entity),
		Values: make(map[string]any),
		Joined: make(map[string]map[string]any),
	}
}

// Set stores a value. A dotted path "alias.field" is stored under the joined alias.
func (r *Record) Set(path string, value any) {
	path = strings.ToLower(path)
	alias, field, ok := strings.Cut(path, ".")
	if !ok {
		r.Values[path] = value
		return
	}

	if r.Joined == nil {
		r.Joined = make(map[string]map[string]any)
	}
	if r.Joined[alias] == nil {
		r.Joined[alias] = make(map[string]any)
	}
	r.Joined[alias][field] = value
}

// Get reads a value by "field" or "alias.field", ignoring case.
func (r *Record) Get(path string) (any, bool) {
	if r == nil {
		return nil, false
	}

	path = strings.ToLower(path)
	if alias, field, ok := strings.Cut(path, "."); ok {
		joined, exists := r.Joined[alias]
		if !exists {
			return nil, false
		}
		value, exists := joined[field]
		return value, exists
	}

	value, exists := r.Values[path]
	return value, exists
}

// ID returns the record identifier.
func (r *Record) ID() string {
	value, _ := r.Get("id")
	return FormatID(value)
}

// FormatID stringifies identifier values as returned by SQL drivers.
func FormatID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case uuid.UUID:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}
