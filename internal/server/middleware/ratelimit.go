package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/metrics"
	"github.com/base2ml/babyraffle/internal/ratelimit"
)

// RateLimit enforces per-client and per-tenant fixed-window quotas. The
// per-client counter is keyed by IP regardless of authentication, so many
// accounts behind one address share one budget; the quota comes from the
// tenant's plan when a tenant is resolved, the anonymous tier otherwise.
// The tenant itself carries an aggregate quota scaled by the configured
// multiplier. Counter-store failures never reject a request.
func RateLimit(store ratelimit.CounterStore, policy *ratelimit.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			ctx := r.Context()

			quota := policy.Anonymous
			ip, _ := ClientIPFromContext(ctx)
			subject := "ip:" + ip

			tenant, hasTenant := TenantFromContext(ctx)
			if hasTenant {
				quota = policy.ForPlan(tenant.Plan)
			}

			window, ok, err := ratelimit.Check(ctx, store, subject, quota, now)
			if err != nil {
				log.Warn().Err(err).Str("subject", subject).Msg("ratelimit: counter store unavailable")
			} else if !ok {
				reject(w, r, window, quota)
				return
			}

			if hasTenant {
				tenantQuota := quota.Scale(policy.TenantMultiplier)
				window, ok, err = ratelimit.Check(ctx, store, "tenant:"+tenant.ID.String(), tenantQuota, now)
				if err != nil {
					log.Warn().Err(err).Str("tenant_id", tenant.ID.String()).Msg("ratelimit: counter store unavailable")
				} else if !ok {
					reject(w, r, window, tenantQuota)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, window ratelimit.Window, q ratelimit.Quota) {
	metrics.RateLimited.WithLabelValues(string(window)).Inc()
	w.Header().Set("Retry-After", strconv.Itoa(window.RetryAfter()))

	limit := q.PerMinute
	if window == ratelimit.WindowHour {
		limit = q.PerHour
	}
	writeError(w, r, http.StatusTooManyRequests, "rate_limited",
		fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window))
}
