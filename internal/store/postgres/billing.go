package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base2ml/babyraffle/internal/domain"
)

type BillingRepo struct {
	pool *pgxpool.Pool
}

func NewBillingRepo(pool *pgxpool.Pool) *BillingRepo {
	return &BillingRepo{pool: pool}
}

const subscriptionColumns = `id, tenant_id, stripe_subscription_id, plan, status, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription

	err := row.Scan(
		&s.ID, &s.TenantID, &s.StripeSubscriptionID, &s.Plan, &s.Status,
		&s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *BillingRepo) CreateSubscription(ctx context.Context, s *domain.Subscription) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, tenant_id, stripe_subscription_id, plan, status, current_period_end, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.TenantID, s.StripeSubscriptionID, s.Plan, s.Status,
		s.CurrentPeriodEnd, s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("billingRepo.CreateSubscription: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("billingRepo.CreateSubscription: %w", err)
	}

	return nil
}

func (r *BillingRepo) GetSubscriptionByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT 1`,
		tenantID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("billingRepo.GetSubscriptionByTenant: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("billingRepo.GetSubscriptionByTenant: %w", err)
	}

	return s, nil
}

func (r *BillingRepo) GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*domain.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`,
		stripeID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("billingRepo.GetSubscriptionByStripeID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("billingRepo.GetSubscriptionByStripeID: %w", err)
	}

	return s, nil
}

func (r *BillingRepo) UpdateSubscription(ctx context.Context, s *domain.Subscription) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET plan = $1, status = $2, current_period_end = $3, updated_at = now()
		 WHERE id = $4`,
		s.Plan, s.Status, s.CurrentPeriodEnd, s.ID,
	)
	if err != nil {
		return fmt.Errorf("billingRepo.UpdateSubscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("billingRepo.UpdateSubscription: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BillingRepo) CreatePayment(ctx context.Context, p *domain.Payment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments (id, tenant_id, stripe_payment_intent, amount, currency, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.StripePaymentIntent, p.Amount, p.Currency,
		p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("billingRepo.CreatePayment: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("billingRepo.CreatePayment: %w", err)
	}

	return nil
}

func (r *BillingRepo) UpdatePaymentStatus(ctx context.Context, stripeIntentID string, status domain.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $1, updated_at = now() WHERE stripe_payment_intent = $2`,
		status, stripeIntentID,
	)
	if err != nil {
		return fmt.Errorf("billingRepo.UpdatePaymentStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("billingRepo.UpdatePaymentStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BillingRepo) ListPayments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, stripe_payment_intent, amount, currency, status, created_at, updated_at
		 FROM payments WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("billingRepo.ListPayments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var p domain.Payment

		err = rows.Scan(
			&p.ID, &p.TenantID, &p.StripePaymentIntent, &p.Amount, &p.Currency,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("billingRepo.ListPayments: scan: %w", err)
		}

		payments = append(payments, &p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("billingRepo.ListPayments: rows: %w", err)
	}

	return payments, nil
}
