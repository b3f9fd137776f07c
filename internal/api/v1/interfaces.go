package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Users() domain.UserRepository
	Categories() domain.CategoryRepository
	Bets() domain.BetRepository
	Billing() domain.BillingRepository
	Site() domain.SiteRepository
}

// AuthService abstracts OAuth login operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	LoginURL(providerName, state string) (string, error)
	HandleCallback(ctx context.Context, providerName, code string, tenantID uuid.UUID) (string, *domain.User, error)
}

// Deployer abstracts site deployment triggers for handler testing.
// *deploy.Trigger satisfies this interface.
type Deployer interface {
	Enabled() bool
	Deploy(ctx context.Context, tenant *domain.Tenant, triggeredBy uuid.UUID) (*domain.Deployment, error)
}
