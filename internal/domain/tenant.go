package domain

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "trial"
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusInactive  TenantStatus = "inactive"
)

// ValidTransition checks if a tenant lifecycle transition is allowed.
// Allowed: trial->active (completed signup/payment), active->suspended
// (payment failure, cancellation), suspended->active (payment recovery),
// and any non-terminal state -> inactive (deletion, terminal).
func (s TenantStatus) ValidTransition(to TenantStatus) bool {
	switch s {
	case TenantStatusTrial:
		return to == TenantStatusActive || to == TenantStatusInactive
	case TenantStatusActive:
		return to == TenantStatusSuspended || to == TenantStatusInactive
	case TenantStatusSuspended:
		return to == TenantStatusActive || to == TenantStatusInactive
	default:
		return false
	}
}

type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanBasic      SubscriptionPlan = "basic"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

type Tenant struct {
	ID               uuid.UUID
	Subdomain        string // DNS label, unique, immutable once assigned
	Name             string
	OwnerEmail       string
	Status           TenantStatus
	Plan             SubscriptionPlan
	StripeCustomerID string
	Settings         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the tenant may serve non-billing traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// reservedSubdomains are labels that can never be claimed by a tenant.
var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "admin": {}, "app": {}, "mail": {},
	"status": {}, "docs": {}, "mybabyraffle": {},
}

// ValidSubdomain reports whether s is a DNS-safe, non-reserved label.
func ValidSubdomain(s string) bool {
	if !subdomainPattern.MatchString(s) {
		return false
	}
	_, reserved := reservedSubdomains[s]
	return !reserved
}

type TenantStats struct {
	TotalBets      int64
	ValidatedBets  int64
	TotalAmount    int64 // cents
	TotalUsers     int64
	CategoryCounts map[string]int64
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status TenantStatus) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
	Stats(ctx context.Context, id uuid.UUID) (*TenantStats, error)
}
