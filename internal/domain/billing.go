package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	StripeSubscriptionID string
	Plan                 SubscriptionPlan
	Status               SubscriptionStatus
	CurrentPeriodEnd     time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	StripePaymentIntent string
	Amount              int64 // cents
	Currency            string
	Status              PaymentStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type BillingRepository interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscriptionByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error

	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePaymentStatus(ctx context.Context, stripeIntentID string, status PaymentStatus) error
	ListPayments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Payment, error)
}
