package attribute

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/shopspring/decimal"
)

// timeLayouts are the textual timestamp forms drivers hand back when a column is not
// decoded into time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts raw into the typed value declared by field. record and path are used by
// lookups, whose id may have been joined in under path.
func Coerce(field models.FieldMetadata, raw any, record *models.Record, path string) (models.Value, error) {
	if field.Type == models.FieldTypeLookup {
		return coerceLookup(raw, record, path), nil
	}

	if raw == nil {
		return models.EmptyValue(), nil
	}

	switch field.Type {
	case models.FieldTypeBoolean:
		return coerceBool(raw)
	case models.FieldTypeMoney, models.FieldTypeDecimal:
		return coerceDecimal(raw)
	case models.FieldTypeDate:
		t, err := coerceTime(raw)
		if err != nil {
			return models.Value{}, err
		}
		return models.DateValue(t), nil
	case models.FieldTypeDateTime:
		t, err := coerceTime(raw)
		if err != nil {
			return models.Value{}, err
		}
		return models.DateTimeValue(t), nil
	case models.FieldTypeUniqueID:
		return models.IDValue(models.FormatID(raw)), nil
	case models.FieldTypeInteger:
		return coerceInteger(raw)
	case models.FieldTypeOption:
		display, _ := field.OptionValue(FormatRaw(raw))
		return models.StringValue(display), nil
	case models.FieldTypeMultiOption:
		return coerceMultiOption(field, raw), nil
	case models.FieldTypeComposite:
		return coerceComposite(raw)
	}

	return models.StringValue(FormatRaw(raw)), nil
}

func coerceLookup(raw any, record *models.Record, path string) models.Value {
	if joinedID, ok := record.Get(path + ".id"); ok && joinedID != nil {
		return models.IDValue(models.FormatID(joinedID))
	}
	if raw == nil {
		return models.EmptyValue()
	}
	return models.IDValue(models.FormatID(raw))
}

func coerceBool(raw any) (models.Value, error) {
	switch v := raw.(type) {
	case bool:
		return models.BoolValue(v), nil
	case int64:
		return models.BoolValue(v != 0), nil
	case int:
		return models.BoolValue(v != 0), nil
	case string, []byte:
		parsed, err := strconv.ParseBool(strings.TrimSpace(FormatRaw(v)))
		if err != nil {
			return models.Value{}, conversionError(raw, "boolean")
		}
		return models.BoolValue(parsed), nil
	}
	return models.Value{}, conversionError(raw, "boolean")
}

func coerceDecimal(raw any) (models.Value, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return models.DecimalValue(v), nil
	case float64:
		return models.DecimalValue(decimal.NewFromFloat(v)), nil
	case float32:
		return models.DecimalValue(decimal.NewFromFloat32(v)), nil
	case int64:
		return models.DecimalValue(decimal.NewFromInt(v)), nil
	case int:
		return models.DecimalValue(decimal.NewFromInt(int64(v))), nil
	case int32:
		return models.DecimalValue(decimal.NewFromInt32(v)), nil
	case string, []byte:
		text := strings.TrimSpace(FormatRaw(v))
		if text == "" {
			return models.EmptyValue(), nil
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return models.Value{}, conversionError(raw, "decimal")
		}
		return models.DecimalValue(d), nil
	}
	return models.Value{}, conversionError(raw, "decimal")
}

func coerceTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string, []byte:
		text := strings.TrimSpace(FormatRaw(v))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, conversionError(raw, "date")
}

func coerceInteger(raw any) (models.Value, error) {
	switch v := raw.(type) {
	case int64:
		return models.IntegerValue(v), nil
	case int:
		return models.IntegerValue(int64(v)), nil
	case int32:
		return models.IntegerValue(int64(v)), nil
	case float64:
		if v != math.Trunc(v) {
			return models.Value{}, conversionError(raw, "integer")
		}
		return models.IntegerValue(int64(v)), nil
	case string, []byte:
		parsed, err := strconv.ParseInt(strings.TrimSpace(FormatRaw(v)), 10, 64)
		if err != nil {
			return models.Value{}, conversionError(raw, "integer")
		}
		return models.IntegerValue(parsed), nil
	}
	return models.Value{}, conversionError(raw, "integer")
}

// coerceMultiOption maps each selected key to its display value. Keys arrive as a
// ";" or "," separated string or as a list.
func coerceMultiOption(field models.FieldMetadata, raw any) models.Value {
	var keys []string
	switch v := raw.(type) {
	case []string:
		keys = v
	case []any:
		keys = ectolinq.Map(v, func(key any) string { return FormatRaw(key) })
	default:
		keys = strings.FieldsFunc(FormatRaw(v), func(r rune) bool { return r == ';' || r == ',' })
	}

	displays := []string{}
	for _, key := range keys {
		if display, ok := field.OptionValue(strings.TrimSpace(key)); ok {
			displays = append(displays, display)
		}
	}
	return models.StringValue(strings.Join(displays, ";"))
}

func coerceComposite(raw any) (models.Value, error) {
	switch v := raw.(type) {
	case models.Reference:
		return models.ReferenceValue(v), nil
	case *models.Reference:
		if v == nil {
			return models.EmptyValue(), nil
		}
		return models.ReferenceValue(*v), nil
	case map[string]any:
		return models.ReferenceValue(referenceFromMap(v)), nil
	case string, []byte:
		text := strings.TrimSpace(FormatRaw(v))
		if text == "" {
			return models.EmptyValue(), nil
		}
		if !strings.HasPrefix(text, "{") {
			return models.ReferenceValue(models.Reference{ID: text}), nil
		}
		decoded := map[string]any{}
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return models.Value{}, conversionError(raw, "composite")
		}
		return models.ReferenceValue(referenceFromMap(decoded)), nil
	}
	return models.Value{}, conversionError(raw, "composite")
}

func referenceFromMap(values map[string]any) models.Reference {
	ref := models.Reference{}
	for key, value := range values {
		switch strings.ToLower(key) {
		case "id":
			ref.ID = models.FormatID(value)
		case "type":
			ref.Type = FormatRaw(value)
		}
	}
	return ref
}

func conversionError(raw any, target string) error {
	return generr.Newf(generr.KindResolution, "cannot convert %T value '%v' to %s", raw, FormatRaw(raw), target)
}

// FormatRaw stringifies a raw record value without schema information.
func FormatRaw(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format(models.DateLayout)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", raw)
}
