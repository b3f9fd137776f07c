package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
)

type contextKey string

const (
	ContextKeyTenant     contextKey = "tenant"
	ContextKeySubdomain  contextKey = "subdomain"
	ContextKeyOnboarding contextKey = "onboarding"
	ContextKeyClientIP   contextKey = "client_ip"
	ContextKeyUser       contextKey = "user"
)

func TenantFromContext(ctx context.Context) (*domain.Tenant, bool) {
	v, ok := ctx.Value(ContextKeyTenant).(*domain.Tenant)
	return v, ok && v != nil
}

// TenantIDFromContext returns the resolved tenant id, or uuid.Nil when no
// tenant was resolved.
func TenantIDFromContext(ctx context.Context) uuid.UUID {
	if t, ok := TenantFromContext(ctx); ok {
		return t.ID
	}
	return uuid.Nil
}

func SubdomainFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeySubdomain).(string)
	return v, ok && v != ""
}

func IsOnboardingHost(ctx context.Context) bool {
	v, ok := ctx.Value(ContextKeyOnboarding).(bool)
	return ok && v
}

func ClientIPFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyClientIP).(string)
	return v, ok && v != ""
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	v, ok := ctx.Value(ContextKeyUser).(*domain.User)
	return v, ok && v != nil
}
