// Package ratelimit provides fixed-window request counters keyed by client IP
// and tenant. Counter state lives behind CounterStore so the limiter can run
// on the in-process sharded store or on Redis when configured.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/domain"
)

// CounterStore holds fixed-window counters. A counter expires once ttl
// elapses from its first increment; Get reports 0 for missing or expired
// keys.
type CounterStore interface {
	Get(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Quota is a per-minute/per-hour request budget.
type Quota struct {
	PerMinute int
	PerHour   int
}

// Scale multiplies both budgets; used for tenant-keyed counters, which
// aggregate many users.
func (q Quota) Scale(factor int) Quota {
	return Quota{PerMinute: q.PerMinute * factor, PerHour: q.PerHour * factor}
}

// Policy maps subscription plans to quotas.
type Policy struct {
	Anonymous        Quota
	Tiers            map[domain.SubscriptionPlan]Quota
	TenantMultiplier int
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg config.RateLimitConfig) *Policy {
	return &Policy{
		Anonymous:        Quota{PerMinute: cfg.AnonymousPerMinute, PerHour: cfg.AnonymousPerHour},
		TenantMultiplier: cfg.TenantMultiplier,
		Tiers: map[domain.SubscriptionPlan]Quota{
			domain.PlanFree:       {PerMinute: cfg.FreePerMinute, PerHour: cfg.FreePerHour},
			domain.PlanBasic:      {PerMinute: cfg.BasicPerMinute, PerHour: cfg.BasicPerHour},
			domain.PlanPremium:    {PerMinute: cfg.PremiumPerMinute, PerHour: cfg.PremiumPerHour},
			domain.PlanEnterprise: {PerMinute: cfg.EnterprisePerMinute, PerHour: cfg.EnterprisePerHour},
		},
	}
}

// ForPlan returns the quota for a plan, falling back to the free tier for
// unknown plans.
func (p *Policy) ForPlan(plan domain.SubscriptionPlan) Quota {
	if q, ok := p.Tiers[plan]; ok {
		return q
	}
	return p.Tiers[domain.PlanFree]
}

// Window identifies which bucket a rejection came from; it maps directly to
// the Retry-After value.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
)

// RetryAfter returns the Retry-After hint in seconds for a window.
func (w Window) RetryAfter() int {
	if w == WindowHour {
		return 3600
	}
	return 60
}

// MinuteKey returns the counter key for subject in the current minute bucket.
func MinuteKey(subject string, now time.Time) string {
	return fmt.Sprintf("rl:%s:m:%d", subject, now.Unix()/60)
}

// HourKey returns the counter key for subject in the current hour bucket.
func HourKey(subject string, now time.Time) string {
	return fmt.Sprintf("rl:%s:h:%d", subject, now.Unix()/3600)
}

// Check tests both window counters for subject and reports the first
// violated window, minute before hour. Counters increment only when the
// request is allowed; a rejected request consumes no budget.
func Check(ctx context.Context, store CounterStore, subject string, q Quota, now time.Time) (Window, bool, error) {
	minuteKey, hourKey := MinuteKey(subject, now), HourKey(subject, now)

	minuteCount, err := store.Get(ctx, minuteKey)
	if err != nil {
		return "", false, fmt.Errorf("ratelimit.Check: %w", err)
	}
	if minuteCount >= int64(q.PerMinute) {
		return WindowMinute, false, nil
	}

	hourCount, err := store.Get(ctx, hourKey)
	if err != nil {
		return "", false, fmt.Errorf("ratelimit.Check: %w", err)
	}
	if hourCount >= int64(q.PerHour) {
		return WindowHour, false, nil
	}

	if _, err := store.Incr(ctx, minuteKey, 2*time.Minute); err != nil {
		return "", false, fmt.Errorf("ratelimit.Check: %w", err)
	}
	if _, err := store.Incr(ctx, hourKey, 2*time.Hour); err != nil {
		return "", false, fmt.Errorf("ratelimit.Check: %w", err)
	}

	return "", true, nil
}
