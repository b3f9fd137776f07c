package deploy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/deploy"
	"github.com/base2ml/babyraffle/internal/domain"
)

type mockSiteRepo struct {
	domain.SiteRepository

	created *domain.Deployment
	updated *domain.Deployment
}

func (m *mockSiteRepo) CreateDeployment(_ context.Context, d *domain.Deployment) error {
	m.created = d
	return nil
}

func (m *mockSiteRepo) UpdateDeployment(_ context.Context, d *domain.Deployment) error {
	m.updated = d
	return nil
}

func testTenant() *domain.Tenant {
	return &domain.Tenant{ID: uuid.New(), Subdomain: "smith", Status: domain.TenantStatusActive}
}

func TestDeploy_Succeeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer hook-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	repo := &mockSiteRepo{}
	trigger := deploy.NewTrigger(config.DeployConfig{
		WebhookURL:        srv.URL,
		Token:             "hook-token",
		TriggersPerMinute: 60,
	}, repo)

	tenant := testTenant()
	userID := uuid.New()

	d, err := trigger.Deploy(context.Background(), tenant, userID)
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentStatusSucceeded, d.Status)
	assert.Equal(t, userID, d.TriggeredBy)
	assert.NotNil(t, d.CompletedAt)
	assert.EqualValues(t, 1, calls.Load())
	require.NotNil(t, repo.updated)
	assert.Equal(t, domain.DeploymentStatusSucceeded, repo.updated.Status)
}

func TestDeploy_WebhookFailureRecorded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := &mockSiteRepo{}
	trigger := deploy.NewTrigger(config.DeployConfig{
		WebhookURL:        srv.URL,
		TriggersPerMinute: 60,
	}, repo)

	d, err := trigger.Deploy(context.Background(), testTenant(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, domain.DeploymentStatusFailed, d.Status)
	assert.Contains(t, d.Detail, "502")
}

func TestDeploy_PerTenantThrottle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := &mockSiteRepo{}
	trigger := deploy.NewTrigger(config.DeployConfig{
		WebhookURL:        srv.URL,
		TriggersPerMinute: 1,
	}, repo)

	tenant := testTenant()

	_, err := trigger.Deploy(context.Background(), tenant, uuid.New())
	require.NoError(t, err)

	_, err = trigger.Deploy(context.Background(), tenant, uuid.New())
	require.ErrorIs(t, err, deploy.ErrThrottled)

	// A different tenant has its own budget.
	_, err = trigger.Deploy(context.Background(), testTenant(), uuid.New())
	require.NoError(t, err)
}
