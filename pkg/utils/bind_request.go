package utils

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest decodes a JSON body such as the schema invalidation request and
// runs its validate tags. An empty body binds to the zero value, which the
// invalidate route reads as "flush every entity". Failures are 400s naming the
// first offending json field.
func BindRequest[T any](c echo.Context) (T, error) {
	var body T
	if err := c.Bind(&body); err != nil {
		return body, httperror.WrapError(http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
	}

	field, invalid := FirstInvalidField(body)
	if !invalid {
		return body, nil
	}
	_, err := Validate(body)
	return body, httperror.WrapError(http.StatusBadRequest, fmt.Errorf("invalid field '%s': %w", field, err))
}
