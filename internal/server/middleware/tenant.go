package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/domain"
)

// publicPathPrefixes bypass tenant resolution regardless of host. The
// docs, OpenAPI document, and schema registry mount under the /api group.
var publicPathPrefixes = []string{
	"/health",
	"/api/docs",
	"/api/openapi",
	"/api/schemas/",
	"/metrics",
	"/static/",
}

// IsPublicPath reports whether path needs no tenant context.
func IsPublicPath(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range publicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// billingPathPrefix marks the operations a non-active tenant may still reach
// so it can recover its subscription.
const billingPathPrefix = "/api/billing/"

// ResolveTenant derives the tenant from the request's Host header and attaches
// it, together with the subdomain and client IP, to the request context.
// Unknown subdomains get 404; tenants that are not active get 403 for
// everything except billing recovery (trial and suspended only).
func ResolveTenant(baseDomain, onboardingSubdomain string, tenants domain.TenantRepository) func(http.Handler) http.Handler {
	baseDomain = strings.ToLower(baseDomain)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ContextKeyClientIP, clientIP(r))

			subdomain := ExtractSubdomain(r.Host, baseDomain)
			ctx = context.WithValue(ctx, ContextKeySubdomain, subdomain)

			if subdomain == onboardingSubdomain {
				// The onboarding host serves the sign-up flow, not a tenant site.
				ctx = context.WithValue(ctx, ContextKeyOnboarding, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if IsPublicPath(r.URL.Path) || subdomain == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			tenant, err := tenants.GetBySubdomain(ctx, subdomain)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeError(w, r, http.StatusNotFound, "tenant_not_found",
						fmt.Sprintf("no tenant registered for subdomain %q", subdomain))
					return
				}
				log.Error().Err(err).Str("subdomain", subdomain).Msg("tenant: lookup failed")
				writeError(w, r, http.StatusInternalServerError, "internal_error", "tenant lookup failed")
				return
			}

			if !tenant.IsActive() {
				recoverable := tenant.Status == domain.TenantStatusTrial || tenant.Status == domain.TenantStatusSuspended
				if !recoverable || !strings.HasPrefix(r.URL.Path, billingPathPrefix) {
					writeError(w, r, http.StatusForbidden, "tenant_inactive",
						fmt.Sprintf("tenant is %s", tenant.Status))
					return
				}
			}

			// The tenant id in context is the scoping parameter every
			// repository query binds as an explicit tenant_id filter.
			ctx = context.WithValue(ctx, ContextKeyTenant, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractSubdomain returns the tenant label from a host header, or "" for
// hosts outside the base domain (localhost, raw IPs, foreign domains).
func ExtractSubdomain(host, baseDomain string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}

	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") {
		return ""
	}
	return label
}

// clientIP derives the caller address, preferring the first X-Forwarded-For
// hop, then X-Real-IP, then the raw connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
