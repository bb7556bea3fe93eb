package middleware

import (
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"
)

// Context copies request identity onto the request context and echoes the request id back.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = fernctx.SetRequestID(ctx, requestID)
			ctx = fernctx.SetRoute(ctx, req.URL.Path)
			ctx = fernctx.SetRemoteIP(ctx, c.RealIP())
			if tenantID := req.Header.Get(HeaderTenantID); tenantID != "" {
				ctx = fernctx.SetTenantID(ctx, tenantID)
			}
			if userID := req.Header.Get(HeaderUserID); userID != "" {
				ctx = fernctx.SetUserID(ctx, userID)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
