package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	v1 "github.com/base2ml/babyraffle/internal/api/v1"
	"github.com/base2ml/babyraffle/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock billing service and webhook processor
// ---------------------------------------------------------------------------

type mockBillingService struct {
	enabled            bool
	ensureCustomerFunc func(ctx context.Context, tenants domain.TenantRepository, t *domain.Tenant) (string, error)
	paymentIntentFunc  func(ctx context.Context, customerID string, amount int64, currency string) (string, string, error)
	subscriptionFunc   func(ctx context.Context, customerID string, plan domain.SubscriptionPlan) (*stripe.Subscription, error)
	portalFunc         func(ctx context.Context, customerID, returnURL string) (string, error)
}

func (m *mockBillingService) Enabled() bool { return m.enabled }
func (m *mockBillingService) EnsureCustomer(ctx context.Context, tenants domain.TenantRepository, t *domain.Tenant) (string, error) {
	return m.ensureCustomerFunc(ctx, tenants, t)
}
func (m *mockBillingService) CreatePaymentIntent(ctx context.Context, customerID string, amount int64, currency string) (string, string, error) {
	return m.paymentIntentFunc(ctx, customerID, amount, currency)
}
func (m *mockBillingService) CreateSubscription(ctx context.Context, customerID string, plan domain.SubscriptionPlan) (*stripe.Subscription, error) {
	return m.subscriptionFunc(ctx, customerID, plan)
}
func (m *mockBillingService) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	return m.portalFunc(ctx, customerID, returnURL)
}

type mockWebhookProcessor struct {
	verifyFunc  func(payload []byte, signature string) (stripe.Event, error)
	processFunc func(ctx context.Context, event stripe.Event) error
}

func (m *mockWebhookProcessor) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	return m.verifyFunc(payload, signature)
}
func (m *mockWebhookProcessor) Process(ctx context.Context, event stripe.Event) error {
	return m.processFunc(ctx, event)
}

// ---------------------------------------------------------------------------
// TestCreatePaymentIntent
// ---------------------------------------------------------------------------

func TestCreatePaymentIntent(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		var recorded *domain.Payment
		store := &mockDataStore{
			billing: &mockBillingRepo{
				createPaymentFunc: func(_ context.Context, p *domain.Payment) error {
					recorded = p
					return nil
				},
			},
		}
		svc := &mockBillingService{
			enabled: true,
			ensureCustomerFunc: func(_ context.Context, _ domain.TenantRepository, tn *domain.Tenant) (string, error) {
				assert.Equal(t, tenant.ID, tn.ID)
				return "cus_123", nil
			},
			paymentIntentFunc: func(_ context.Context, customerID string, amount int64, currency string) (string, string, error) {
				assert.Equal(t, "cus_123", customerID)
				assert.Equal(t, int64(2500), amount)
				assert.Equal(t, "usd", currency)
				return "pi_456", "pi_456_secret", nil
			},
		}
		v1.RegisterBillingRoutes(api, store, svc, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(tenant, domain.RoleAdmin), "/billing/payment-intent", map[string]any{
			"amount": 2500,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, recorded)
		assert.Equal(t, "pi_456", recorded.StripePaymentIntent)
		assert.Equal(t, domain.PaymentStatusPending, recorded.Status)

		var body struct {
			PaymentIntentID string `json:"payment_intent_id"`
			ClientSecret    string `json:"client_secret"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "pi_456", body.PaymentIntentID)
		assert.Equal(t, "pi_456_secret", body.ClientSecret)
	})

	t.Run("billing_disabled", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{enabled: false}, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(fixedTenant(), domain.RoleAdmin), "/billing/payment-intent", map[string]any{
			"amount": 2500,
		})

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("plain_user_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{enabled: true}, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(fixedTenant(), domain.RoleUser), "/billing/payment-intent", map[string]any{
			"amount": 2500,
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestCreateSubscription
// ---------------------------------------------------------------------------

func TestCreateSubscription(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		var recorded *domain.Subscription
		store := &mockDataStore{
			billing: &mockBillingRepo{
				createSubFunc: func(_ context.Context, s *domain.Subscription) error {
					recorded = s
					return nil
				},
			},
		}
		svc := &mockBillingService{
			enabled: true,
			ensureCustomerFunc: func(context.Context, domain.TenantRepository, *domain.Tenant) (string, error) {
				return "cus_123", nil
			},
			subscriptionFunc: func(_ context.Context, customerID string, plan domain.SubscriptionPlan) (*stripe.Subscription, error) {
				assert.Equal(t, domain.PlanPremium, plan)
				return &stripe.Subscription{ID: "sub_789"}, nil
			},
		}
		v1.RegisterBillingRoutes(api, store, svc, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(tenant, domain.RoleOwner), "/billing/subscription", map[string]any{
			"plan": "premium",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, recorded)
		assert.Equal(t, "sub_789", recorded.StripeSubscriptionID)
		assert.Equal(t, domain.PlanPremium, recorded.Plan)
		assert.Equal(t, domain.SubscriptionStatusPastDue, recorded.Status)
	})

	t.Run("unpriced_plan", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockBillingService{
			enabled: true,
			ensureCustomerFunc: func(context.Context, domain.TenantRepository, *domain.Tenant) (string, error) {
				return "cus_123", nil
			},
			subscriptionFunc: func(context.Context, string, domain.SubscriptionPlan) (*stripe.Subscription, error) {
				return nil, domain.ErrInvalid
			},
		}
		v1.RegisterBillingRoutes(api, &mockDataStore{}, svc, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(fixedTenant(), domain.RoleOwner), "/billing/subscription", map[string]any{
			"plan": "enterprise",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("admin_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{enabled: true}, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(fixedTenant(), domain.RoleAdmin), "/billing/subscription", map[string]any{
			"plan": "basic",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestGetSubscription
// ---------------------------------------------------------------------------

func TestGetSubscription(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		store := &mockDataStore{
			billing: &mockBillingRepo{
				getSubByTenantFunc: func(_ context.Context, tid uuid.UUID) (*domain.Subscription, error) {
					assert.Equal(t, tenant.ID, tid)
					return &domain.Subscription{
						ID: uuid.New(), TenantID: tid,
						Plan: domain.PlanBasic, Status: domain.SubscriptionStatusActive,
					}, nil
				},
			},
		}
		v1.RegisterBillingRoutes(api, store, &mockBillingService{}, &mockWebhookProcessor{})

		resp := api.GetCtx(userCtx(tenant, domain.RoleAdmin), "/billing/subscription")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Subscription
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.PlanBasic, body.Plan)
	})

	t.Run("no_subscription", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			billing: &mockBillingRepo{
				getSubByTenantFunc: func(context.Context, uuid.UUID) (*domain.Subscription, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		v1.RegisterBillingRoutes(api, store, &mockBillingService{}, &mockWebhookProcessor{})

		resp := api.GetCtx(userCtx(fixedTenant(), domain.RoleAdmin), "/billing/subscription")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestBillingPortal
// ---------------------------------------------------------------------------

func TestBillingPortal(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		tenant.StripeCustomerID = "cus_123"
		svc := &mockBillingService{
			enabled: true,
			portalFunc: func(_ context.Context, customerID, returnURL string) (string, error) {
				assert.Equal(t, "cus_123", customerID)
				assert.Equal(t, "https://smith.base2ml.com/admin", returnURL)
				return "https://billing.stripe.com/session/xyz", nil
			},
		}
		v1.RegisterBillingRoutes(api, &mockDataStore{}, svc, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(tenant, domain.RoleOwner), "/billing/portal", map[string]any{
			"return_url": "https://smith.base2ml.com/admin",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "https://billing.stripe.com/session/xyz", body.URL)
	})

	t.Run("no_billing_account", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{enabled: true}, &mockWebhookProcessor{})

		resp := api.PostCtx(userCtx(fixedTenant(), domain.RoleOwner), "/billing/portal", map[string]any{
			"return_url": "https://smith.base2ml.com/admin",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestStripeWebhook
// ---------------------------------------------------------------------------

func TestStripeWebhook(t *testing.T) {
	t.Parallel()

	t.Run("valid_event_processed", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var processed stripe.Event
		hooks := &mockWebhookProcessor{
			verifyFunc: func(payload []byte, signature string) (stripe.Event, error) {
				assert.Equal(t, "t=123,v1=abc", signature)
				return stripe.Event{ID: "evt_1", Type: "invoice.payment_succeeded"}, nil
			},
			processFunc: func(_ context.Context, event stripe.Event) error {
				processed = event
				return nil
			},
		}
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{}, hooks)

		resp := api.Post("/billing/webhook",
			"Stripe-Signature: t=123,v1=abc",
			map[string]any{"id": "evt_1"},
		)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "evt_1", processed.ID)

		var body struct {
			Received bool `json:"received"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Received)
	})

	t.Run("bad_signature", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		hooks := &mockWebhookProcessor{
			verifyFunc: func([]byte, string) (stripe.Event, error) {
				return stripe.Event{}, errors.New("signature mismatch")
			},
		}
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{}, hooks)

		resp := api.Post("/billing/webhook",
			"Stripe-Signature: t=123,v1=wrong",
			map[string]any{"id": "evt_1"},
		)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("processing_failure", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		hooks := &mockWebhookProcessor{
			verifyFunc: func([]byte, string) (stripe.Event, error) {
				return stripe.Event{ID: "evt_2"}, nil
			},
			processFunc: func(context.Context, stripe.Event) error {
				return errors.New("db down")
			},
		}
		v1.RegisterBillingRoutes(api, &mockDataStore{}, &mockBillingService{}, hooks)

		resp := api.Post("/billing/webhook",
			"Stripe-Signature: t=123,v1=abc",
			map[string]any{"id": "evt_2"},
		)

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestListPayments
// ---------------------------------------------------------------------------

func TestListPayments(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	tenant := fixedTenant()
	store := &mockDataStore{
		billing: &mockBillingRepo{
			listPaymentsFunc: func(_ context.Context, tid uuid.UUID, limit int) ([]*domain.Payment, error) {
				assert.Equal(t, tenant.ID, tid)
				assert.Equal(t, 50, limit)
				return []*domain.Payment{
					{ID: uuid.New(), TenantID: tid, Amount: 2500, Status: domain.PaymentStatusSucceeded},
				}, nil
			},
		},
	}
	v1.RegisterBillingRoutes(api, store, &mockBillingService{}, &mockWebhookProcessor{})

	resp := api.GetCtx(userCtx(tenant, domain.RoleAdmin), "/billing/payments")

	require.Equal(t, http.StatusOK, resp.Code)

	var body []*domain.Payment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, int64(2500), body[0].Amount)
}
