package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AnyToType converts a decoded JSON value into T. Numbers convert between numeric kinds and
// "true"/"false" strings convert to bool, which covers settings stored as text.
func AnyToType[T any](input any) (T, error) {
	var zero T
	if input == nil {
		return zero, nil
	}

	if result, ok := input.(T); ok {
		return result, nil
	}

	targetType := reflect.TypeOf(zero)
	if targetType == nil {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
	}

	if text, ok := input.(string); ok && targetType.Kind() == reflect.Bool {
		parsed, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return zero, fmt.Errorf("type mismatch: expected %T, got %q", zero, text)
		}
		return reflect.ValueOf(parsed).Convert(targetType).Interface().(T), nil
	}

	inputValue := reflect.ValueOf(input)
	if isNumericKind(inputValue.Kind()) && isNumericKind(targetType.Kind()) && inputValue.Type().ConvertibleTo(targetType) {
		if result, ok := inputValue.Convert(targetType).Interface().(T); ok {
			return result, nil
		}
	}

	return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
