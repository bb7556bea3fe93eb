package context

import "context"

type ContextKey string

var (
	RequestIDKey  = ContextKey("X-Request-Id")
	RouteKey      = ContextKey("X-Route")
	RemoteIPKey   = ContextKey("X-Remote-Ip")
	TenantIDKey   = ContextKey("X-Tenant-Id")
	UserIDKey     = ContextKey("X-User-Id")
	ActionKey     = ContextKey("X-Generation-Action")
	TemplateIDKey = ContextKey("X-Template-Id")
)

func set(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return set(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return set(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return get(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return set(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return get(ctx, RemoteIPKey)
}

func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return set(ctx, TenantIDKey, tenantID)
}

func GetTenantID(ctx context.Context) string {
	return get(ctx, TenantIDKey)
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return set(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return get(ctx, UserIDKey)
}

// SetGeneration tags the context with the document generation being executed so that
// log lines from repositories and the merge service client can be correlated.
func SetGeneration(ctx context.Context, action, templateID string) context.Context {
	ctx = set(ctx, ActionKey, action)
	return set(ctx, TemplateIDKey, templateID)
}

func GetAction(ctx context.Context) string {
	return get(ctx, ActionKey)
}

func GetTemplateID(ctx context.Context) string {
	return get(ctx, TemplateIDKey)
}

// LogFields returns the request scoped values that are set, for structured logging.
func LogFields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for name, key := range map[string]ContextKey{
		"request_id":  RequestIDKey,
		"route":       RouteKey,
		"tenant_id":   TenantIDKey,
		"user_id":     UserIDKey,
		"action":      ActionKey,
		"template_id": TemplateIDKey,
	} {
		if value := get(ctx, key); value != "" {
			fields[name] = value
		}
	}
	return fields
}
