package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

type fakeVerifier struct {
	claims *UserClaims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*UserClaims, error) {
	return f.claims, f.err
}

func newServer(middlewares ...echo.MiddlewareFunc) (*echo.Echo, *map[string]string) {
	seen := map[string]string{}
	e := echo.New()
	e.HTTPErrorHandler = Error(testLogger)
	e.Use(middlewares...)
	e.GET("/whoami", func(c echo.Context) error {
		ctx := c.Request().Context()
		seen["request_id"] = fernctx.GetRequestID(ctx)
		seen["tenant_id"] = fernctx.GetTenantID(ctx)
		seen["user_id"] = fernctx.GetUserID(ctx)
		return c.NoContent(http.StatusNoContent)
	})
	return e, &seen
}

func TestContext(t *testing.T) {
	e, seen := newServer(Context())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-7")
	req.Header.Set(HeaderTenantID, "acme")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-7", (*seen)["request_id"])
	assert.Equal(t, "acme", (*seen)["tenant_id"])
	assert.Equal(t, "req-7", rec.Header().Get(echo.HeaderXRequestID))
}

func TestContextGeneratesRequestID(t *testing.T) {
	e, seen := newServer(Context())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Len(t, (*seen)["request_id"], 36)
}

func TestAuthentication(t *testing.T) {
	t.Run("missing bearer", func(t *testing.T) {
		e, _ := newServer(Authentication(testLogger, &fakeVerifier{}))

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		e, _ := newServer(Authentication(testLogger, &fakeVerifier{err: errors.New("expired")}))

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		e, seen := newServer(Authentication(testLogger, &fakeVerifier{claims: &UserClaims{Sub: "user-1", TenantID: "acme"}}))

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "user-1", (*seen)["user_id"])
		assert.Equal(t, "acme", (*seen)["tenant_id"])
	})
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMeta map[string]any
	}{
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "echo error",
			err:      echo.NewHTTPError(http.StatusNotFound, "nope"),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "http error",
			err:      httperror.NewHTTPError(http.StatusConflict, "conflict"),
			wantCode: http.StatusConflict,
		},
		{
			name:     "generation error",
			err:      generr.New(generr.KindConfiguration, "template has no merge fields").AddStage(generr.StageTemplate),
			wantCode: http.StatusUnprocessableEntity,
			wantMeta: map[string]any{"kind": "configuration", "stage": "template"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			Error(testLogger)(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			for key, value := range tt.wantMeta {
				assert.Equal(t, value, body.Meta[key])
			}
		})
	}
}
