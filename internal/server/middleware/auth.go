package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/auth"
	"github.com/base2ml/babyraffle/internal/domain"
)

// publicAPIPaths are the API operations reachable without a bearer token:
// the OAuth entry points, the sign-up flow that creates the tenant in the
// first place, and the Stripe webhook, which authenticates by signature.
var publicAPIPaths = []string{
	"/api/auth/login",
	"/api/auth/callback",
	"/api/tenant/create",
	"/api/tenant/validate-subdomain",
	"/api/billing/webhook",
}

func isPublicAPIPath(path string) bool {
	for _, p := range publicAPIPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Authenticate validates the Authorization bearer token on /api/ requests,
// loads the user it names, and attaches the user to the request context.
// Tokens minted for one tenant are rejected on another tenant's host.
// The onboarding host never requires a token.
func Authenticate(jwtSecret, issuer string, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !strings.HasPrefix(path, "/api/") || isPublicAPIPath(path) || IsPublicPath(path) ||
				IsOnboardingHost(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, issuer, token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			tokenTenant, err := uuid.Parse(claims.TenantID)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			if tenant, ok := TenantFromContext(r.Context()); ok && tenant.ID != tokenTenant {
				writeError(w, r, http.StatusForbidden, "forbidden", "token not valid for this tenant")
				return
			}

			user, err := users.GetByID(r.Context(), tokenTenant, userID)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			if user.Status != domain.UserStatusActive {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "user not found or inactive")
				return
			}

			if err := users.UpdateLastLogin(r.Context(), user.ID); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: last login update failed")
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
