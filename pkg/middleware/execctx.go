package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// Key type so the context value cannot collide with other packages.
type execCtxKey struct{}

var ExecCtxContextKey = execCtxKey{}

const (
	ModePlatform = "platform"
	ModeCompany  = "company"
)

const (
	HeaderAdminMode  = "X-Admin-Mode"
	HeaderTenantID   = "X-Tenant-ID"
	HeaderSuperAdmin = "X-Super-Admin"
)

// ExecCtx carries the caller identity placed on the request by the trusted
// auth edge. It is derived per request and never persisted.
type ExecCtx struct {
	IsSuperAdmin bool
	Mode         string // "platform", "company" or ""
	TenantID     string
}

// ExecutionContext extracts the execution context headers into a typed value
// on the request context.
func ExecutionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ec := ExecCtx{
			IsSuperAdmin: strings.EqualFold(c.GetHeader(HeaderSuperAdmin), "true"),
			Mode:         normalizeMode(c.GetHeader(HeaderAdminMode)),
			TenantID:     strings.TrimSpace(c.GetHeader(HeaderTenantID)),
		}

		ctx := context.WithValue(c.Request.Context(), ExecCtxContextKey, ec)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModePlatform:
		return ModePlatform
	case ModeCompany:
		return ModeCompany
	default:
		return ""
	}
}

// FromContext returns the execution context, zero-valued when absent.
func FromContext(ctx context.Context) ExecCtx {
	ec, ok := ctx.Value(ExecCtxContextKey).(ExecCtx)
	if !ok {
		return ExecCtx{}
	}
	return ec
}
