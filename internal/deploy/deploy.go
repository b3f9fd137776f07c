// Package deploy triggers static-site publishes for tenants through an
// external build webhook.
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/domain"
)

// ErrThrottled means the tenant triggered deploys faster than allowed.
var ErrThrottled = errors.New("deploy: trigger rate exceeded")

type Trigger struct {
	url       string
	token     string
	client    *http.Client
	site      domain.SiteRepository
	perMinute float64

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
}

func NewTrigger(cfg config.DeployConfig, site domain.SiteRepository) *Trigger {
	return &Trigger{
		url:       cfg.WebhookURL,
		token:     cfg.Token,
		client:    &http.Client{Timeout: 30 * time.Second},
		site:      site,
		perMinute: cfg.TriggersPerMinute,
		limiters:  make(map[uuid.UUID]*rate.Limiter),
	}
}

// Enabled reports whether a webhook URL was configured.
func (t *Trigger) Enabled() bool {
	return t.url != ""
}

func (t *Trigger) limiter(tenantID uuid.UUID) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[tenantID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(t.perMinute/60.0), 1)
		t.limiters[tenantID] = l
	}
	return l
}

type webhookPayload struct {
	TenantID  string `json:"tenant_id"`
	Subdomain string `json:"subdomain"`
}

// Deploy records a deployment, calls the build webhook, and updates the
// record with the outcome. Each tenant is throttled independently.
func (t *Trigger) Deploy(ctx context.Context, tenant *domain.Tenant, triggeredBy uuid.UUID) (*domain.Deployment, error) {
	if !t.limiter(tenant.ID).Allow() {
		return nil, ErrThrottled
	}

	d := &domain.Deployment{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Status:      domain.DeploymentStatusPending,
		TriggeredBy: triggeredBy,
		CreatedAt:   time.Now().UTC(),
	}
	err := t.site.CreateDeployment(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("deploy.Deploy: %w", err)
	}

	status, detail := t.callWebhook(ctx, tenant)

	now := time.Now().UTC()
	d.Status = status
	d.Detail = detail
	d.CompletedAt = &now

	err = t.site.UpdateDeployment(ctx, d)
	if err != nil {
		log.Warn().Err(err).Str("deployment_id", d.ID.String()).Msg("deploy: record update failed")
	}

	return d, nil
}

func (t *Trigger) callWebhook(ctx context.Context, tenant *domain.Tenant) (domain.DeploymentStatus, string) {
	body, err := json.Marshal(webhookPayload{
		TenantID:  tenant.ID.String(),
		Subdomain: tenant.Subdomain,
	})
	if err != nil {
		return domain.DeploymentStatusFailed, err.Error()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return domain.DeploymentStatusFailed, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return domain.DeploymentStatusFailed, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.DeploymentStatusFailed, fmt.Sprintf("webhook returned %d", resp.StatusCode)
	}

	return domain.DeploymentStatusSucceeded, ""
}
