package billing_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/base2ml/babyraffle/internal/billing"
	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/domain"
)

type mockTenantRepo struct {
	getByStripeCustomer func(ctx context.Context, customerID string) (*domain.Tenant, error)
	update              func(ctx context.Context, t *domain.Tenant) error
	updateStatus        func(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error
}

func (m *mockTenantRepo) Create(context.Context, *domain.Tenant) error { panic("unexpected call") }
func (m *mockTenantRepo) GetByID(context.Context, uuid.UUID) (*domain.Tenant, error) {
	panic("unexpected call")
}
func (m *mockTenantRepo) GetBySubdomain(context.Context, string) (*domain.Tenant, error) {
	panic("unexpected call")
}
func (m *mockTenantRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*domain.Tenant, error) {
	return m.getByStripeCustomer(ctx, customerID)
}
func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.update(ctx, t)
}
func (m *mockTenantRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	return m.updateStatus(ctx, id, status)
}
func (m *mockTenantRepo) List(context.Context, int, int) ([]*domain.Tenant, error) {
	panic("unexpected call")
}
func (m *mockTenantRepo) Stats(context.Context, uuid.UUID) (*domain.TenantStats, error) {
	panic("unexpected call")
}

type mockBillingRepo struct {
	createSubscription        func(ctx context.Context, s *domain.Subscription) error
	getSubscriptionByStripeID func(ctx context.Context, stripeID string) (*domain.Subscription, error)
	updateSubscription        func(ctx context.Context, s *domain.Subscription) error
	updatePaymentStatus       func(ctx context.Context, intentID string, status domain.PaymentStatus) error
}

func (m *mockBillingRepo) CreateSubscription(ctx context.Context, s *domain.Subscription) error {
	return m.createSubscription(ctx, s)
}
func (m *mockBillingRepo) GetSubscriptionByTenant(context.Context, uuid.UUID) (*domain.Subscription, error) {
	panic("unexpected call")
}
func (m *mockBillingRepo) GetSubscriptionByStripeID(ctx context.Context, stripeID string) (*domain.Subscription, error) {
	return m.getSubscriptionByStripeID(ctx, stripeID)
}
func (m *mockBillingRepo) UpdateSubscription(ctx context.Context, s *domain.Subscription) error {
	return m.updateSubscription(ctx, s)
}
func (m *mockBillingRepo) CreatePayment(context.Context, *domain.Payment) error {
	panic("unexpected call")
}
func (m *mockBillingRepo) UpdatePaymentStatus(ctx context.Context, intentID string, status domain.PaymentStatus) error {
	return m.updatePaymentStatus(ctx, intentID, status)
}
func (m *mockBillingRepo) ListPayments(context.Context, uuid.UUID, int) ([]*domain.Payment, error) {
	panic("unexpected call")
}

func testClient() *billing.Client {
	return billing.NewClient(config.BillingConfig{
		StripeSecretKey:     "sk_test_x",
		StripeWebhookSecret: "whsec_x",
		PremiumPriceID:      "price_premium",
	})
}

func event(t *testing.T, eventType string, payload any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestProcess_InvoicePaidReactivatesTenant(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{ID: uuid.New(), Status: domain.TenantStatusSuspended, StripeCustomerID: "cus_1"}
	var transitioned domain.TenantStatus
	tenants := &mockTenantRepo{
		getByStripeCustomer: func(_ context.Context, customerID string) (*domain.Tenant, error) {
			assert.Equal(t, "cus_1", customerID)
			return tenant, nil
		},
		updateStatus: func(_ context.Context, id uuid.UUID, status domain.TenantStatus) error {
			assert.Equal(t, tenant.ID, id)
			transitioned = status
			return nil
		},
	}

	p := billing.NewProcessor(testClient(), tenants, &mockBillingRepo{})
	err := p.Process(context.Background(), event(t, "invoice.payment_succeeded",
		map[string]any{"customer": map[string]any{"id": "cus_1"}}))

	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusActive, transitioned)
}

func TestProcess_InvoiceFailedSuspendsTenant(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{ID: uuid.New(), Status: domain.TenantStatusActive, StripeCustomerID: "cus_1"}
	var transitioned domain.TenantStatus
	tenants := &mockTenantRepo{
		getByStripeCustomer: func(context.Context, string) (*domain.Tenant, error) { return tenant, nil },
		updateStatus: func(_ context.Context, _ uuid.UUID, status domain.TenantStatus) error {
			transitioned = status
			return nil
		},
	}

	p := billing.NewProcessor(testClient(), tenants, &mockBillingRepo{})
	err := p.Process(context.Background(), event(t, "invoice.payment_failed",
		map[string]any{"customer": map[string]any{"id": "cus_1"}}))

	require.NoError(t, err)
	assert.Equal(t, domain.TenantStatusSuspended, transitioned)
}

func TestProcess_DisallowedTransitionSkipped(t *testing.T) {
	t.Parallel()

	// An inactive tenant is terminal. A late payment-failed event must not
	// move it, and must not fail the webhook either.
	tenant := &domain.Tenant{ID: uuid.New(), Status: domain.TenantStatusInactive, StripeCustomerID: "cus_1"}
	tenants := &mockTenantRepo{
		getByStripeCustomer: func(context.Context, string) (*domain.Tenant, error) { return tenant, nil },
		updateStatus: func(context.Context, uuid.UUID, domain.TenantStatus) error {
			panic("unexpected call")
		},
	}

	p := billing.NewProcessor(testClient(), tenants, &mockBillingRepo{})
	err := p.Process(context.Background(), event(t, "invoice.payment_failed",
		map[string]any{"customer": map[string]any{"id": "cus_1"}}))

	require.NoError(t, err)
}

func TestProcess_UnknownCustomerIgnored(t *testing.T) {
	t.Parallel()

	tenants := &mockTenantRepo{
		getByStripeCustomer: func(context.Context, string) (*domain.Tenant, error) {
			return nil, domain.ErrNotFound
		},
	}

	p := billing.NewProcessor(testClient(), tenants, &mockBillingRepo{})
	err := p.Process(context.Background(), event(t, "invoice.payment_succeeded",
		map[string]any{"customer": map[string]any{"id": "cus_unknown"}}))

	require.NoError(t, err)
}

func TestProcess_PaymentIntentSucceeded(t *testing.T) {
	t.Parallel()

	var gotIntent string
	var gotStatus domain.PaymentStatus
	repo := &mockBillingRepo{
		updatePaymentStatus: func(_ context.Context, intentID string, status domain.PaymentStatus) error {
			gotIntent = intentID
			gotStatus = status
			return nil
		},
	}

	p := billing.NewProcessor(testClient(), &mockTenantRepo{}, repo)
	err := p.Process(context.Background(), event(t, "payment_intent.succeeded",
		map[string]any{"id": "pi_123"}))

	require.NoError(t, err)
	assert.Equal(t, "pi_123", gotIntent)
	assert.Equal(t, domain.PaymentStatusSucceeded, gotStatus)
}

func TestProcess_SubscriptionDeletedDropsPlan(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{ID: uuid.New(), Status: domain.TenantStatusActive, Plan: domain.PlanPremium, StripeCustomerID: "cus_1"}
	var updatedPlan domain.SubscriptionPlan
	var transitioned domain.TenantStatus
	tenants := &mockTenantRepo{
		getByStripeCustomer: func(context.Context, string) (*domain.Tenant, error) { return tenant, nil },
		update: func(_ context.Context, got *domain.Tenant) error {
			updatedPlan = got.Plan
			return nil
		},
		updateStatus: func(_ context.Context, _ uuid.UUID, status domain.TenantStatus) error {
			transitioned = status
			return nil
		},
	}
	repo := &mockBillingRepo{
		getSubscriptionByStripeID: func(context.Context, string) (*domain.Subscription, error) {
			return nil, domain.ErrNotFound
		},
	}

	p := billing.NewProcessor(testClient(), tenants, repo)
	err := p.Process(context.Background(), event(t, "customer.subscription.deleted",
		map[string]any{"id": "sub_1", "customer": map[string]any{"id": "cus_1"}}))

	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, updatedPlan)
	assert.Equal(t, domain.TenantStatusSuspended, transitioned)
}

func TestProcess_UnhandledEventIgnored(t *testing.T) {
	t.Parallel()

	p := billing.NewProcessor(testClient(), &mockTenantRepo{}, &mockBillingRepo{})
	err := p.Process(context.Background(), event(t, "charge.refunded", map[string]any{"id": "ch_1"}))
	require.NoError(t, err)
}
