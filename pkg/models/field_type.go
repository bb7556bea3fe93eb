package models

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type tag of a merge field. It drives both the fetch column
// treatment and the stringification of the resolved value.
type FieldType string

const (
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeMoney       FieldType = "money"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeDecimal     FieldType = "decimal"
	FieldTypeUniqueID    FieldType = "uniqueidentifier"
	FieldTypeLookup      FieldType = "lookup"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeOption      FieldType = "option"
	FieldTypeMultiOption FieldType = "multioption"
	FieldTypeString      FieldType = "string"
	FieldTypeLongString  FieldType = "longstring"
	FieldTypeComposite   FieldType = "composite"
)

// fieldTypeAliases maps the names used by the schema service and by older template
// specifications onto the canonical tags.
var fieldTypeAliases = map[string]FieldType{
	"boolean":          FieldTypeBoolean,
	"bool":             FieldTypeBoolean,
	"money":            FieldTypeMoney,
	"currency":         FieldTypeMoney,
	"date":             FieldTypeDate,
	"datetime":         FieldTypeDateTime,
	"decimal":          FieldTypeDecimal,
	"double":           FieldTypeDecimal,
	"percent":          FieldTypeDecimal,
	"uniqueidentifier": FieldTypeUniqueID,
	"uniqueid":         FieldTypeUniqueID,
	"id":               FieldTypeUniqueID,
	"lookup":           FieldTypeLookup,
	"reference":        FieldTypeLookup,
	"integer":          FieldTypeInteger,
	"int":              FieldTypeInteger,
	"option":           FieldTypeOption,
	"picklist":         FieldTypeOption,
	"multioption":      FieldTypeMultiOption,
	"multipicklist":    FieldTypeMultiOption,
	"string":           FieldTypeString,
	"text":             FieldTypeString,
	"longstring":       FieldTypeLongString,
	"memo":             FieldTypeLongString,
	"textarea":         FieldTypeLongString,
	"composite":        FieldTypeComposite,
	"polymorphic":      FieldTypeComposite,
}

// ParseFieldType normalizes a type name. Matching ignores case, dashes and underscores.
func ParseFieldType(name string) (FieldType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if t, ok := fieldTypeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown field type '%s'", name)
}

func (t *FieldType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = ""
		return nil
	}

	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

// IsOption reports whether values of this type are option keys resolved to display values.
func (t FieldType) IsOption() bool {
	return t == FieldTypeOption || t == FieldTypeMultiOption
}
