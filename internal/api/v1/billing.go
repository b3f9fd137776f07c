package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/base2ml/babyraffle/internal/domain"
)

// BillingService abstracts the Stripe client for handler testing.
// *billing.Client satisfies this interface.
type BillingService interface {
	Enabled() bool
	EnsureCustomer(ctx context.Context, tenants domain.TenantRepository, t *domain.Tenant) (string, error)
	CreatePaymentIntent(ctx context.Context, customerID string, amount int64, currency string) (id, clientSecret string, err error)
	CreateSubscription(ctx context.Context, customerID string, plan domain.SubscriptionPlan) (*stripe.Subscription, error)
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
}

// WebhookProcessor abstracts Stripe event handling for handler testing.
// *billing.Processor satisfies this interface.
type WebhookProcessor interface {
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
	Process(ctx context.Context, event stripe.Event) error
}

type PaymentIntentInput struct {
	Body struct {
		Amount   int64  `json:"amount" minimum:"50" doc:"Cents"`
		Currency string `json:"currency,omitempty" default:"usd" maxLength:"3"`
	}
}

type PaymentIntentOutput struct {
	Body struct {
		PaymentIntentID string `json:"payment_intent_id"`
		ClientSecret    string `json:"client_secret"`
	}
}

type CreateSubscriptionInput struct {
	Body struct {
		Plan domain.SubscriptionPlan `json:"plan" enum:"basic,premium,enterprise"`
	}
}

type SubscriptionOutput struct {
	Body *domain.Subscription
}

type PortalInput struct {
	Body struct {
		ReturnURL string `json:"return_url" format:"uri"`
	}
}

type PortalOutput struct {
	Body struct {
		URL string `json:"url"`
	}
}

type ListPaymentsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"200" default:"50"`
}

type ListPaymentsOutput struct {
	Body []*domain.Payment
}

type WebhookInput struct {
	Signature string `header:"Stripe-Signature"`
	RawBody   []byte
}

type WebhookOutput struct {
	Body struct {
		Received bool `json:"received"`
	}
}

func RegisterBillingRoutes(api huma.API, store DataStore, svc BillingService, hooks WebhookProcessor) {
	huma.Register(api, huma.Operation{
		OperationID: "create-payment-intent",
		Method:      http.MethodPost,
		Path:        "/billing/payment-intent",
		Summary:     "Open a one-off payment",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *PaymentIntentInput) (*PaymentIntentOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}
		if !svc.Enabled() {
			return nil, huma.Error503ServiceUnavailable("billing is not configured")
		}

		customerID, err := svc.EnsureCustomer(ctx, store.Tenants(), tenant)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create customer", err)
		}

		currency := input.Body.Currency
		if currency == "" {
			currency = "usd"
		}

		intentID, clientSecret, err := svc.CreatePaymentIntent(ctx, customerID, input.Body.Amount, currency)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create payment intent", err)
		}

		now := time.Now()
		err = store.Billing().CreatePayment(ctx, &domain.Payment{
			ID:                  uuid.New(),
			TenantID:            tenant.ID,
			StripePaymentIntent: intentID,
			Amount:              input.Body.Amount,
			Currency:            currency,
			Status:              domain.PaymentStatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to record payment", err)
		}

		out := &PaymentIntentOutput{}
		out.Body.PaymentIntentID = intentID
		out.Body.ClientSecret = clientSecret
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-subscription",
		Method:      http.MethodPost,
		Path:        "/billing/subscription",
		Summary:     "Subscribe the tenant to a paid plan",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *CreateSubscriptionInput) (*SubscriptionOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleOwner); err != nil {
			return nil, err
		}
		if !svc.Enabled() {
			return nil, huma.Error503ServiceUnavailable("billing is not configured")
		}

		customerID, err := svc.EnsureCustomer(ctx, store.Tenants(), tenant)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create customer", err)
		}

		sub, err := svc.CreateSubscription(ctx, customerID, input.Body.Plan)
		if err != nil {
			if errors.Is(err, domain.ErrInvalid) {
				return nil, huma.Error400BadRequest("plan has no configured price")
			}
			return nil, huma.Error500InternalServerError("failed to create subscription", err)
		}

		now := time.Now()
		record := &domain.Subscription{
			ID:                   uuid.New(),
			TenantID:             tenant.ID,
			StripeSubscriptionID: sub.ID,
			Plan:                 input.Body.Plan,
			Status:               domain.SubscriptionStatusPastDue, // active once the first invoice settles
			CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err = store.Billing().CreateSubscription(ctx, record); err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, huma.Error500InternalServerError("failed to record subscription", err)
		}

		return &SubscriptionOutput{Body: record}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-subscription",
		Method:      http.MethodGet,
		Path:        "/billing/subscription",
		Summary:     "Get the tenant's subscription",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, _ *struct{}) (*SubscriptionOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		sub, err := store.Billing().GetSubscriptionByTenant(ctx, tenant.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no subscription")
			}
			return nil, huma.Error500InternalServerError("failed to load subscription", err)
		}

		return &SubscriptionOutput{Body: sub}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "billing-portal",
		Method:      http.MethodPost,
		Path:        "/billing/portal",
		Summary:     "Open the self-serve billing portal",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *PortalInput) (*PortalOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleOwner); err != nil {
			return nil, err
		}
		if !svc.Enabled() {
			return nil, huma.Error503ServiceUnavailable("billing is not configured")
		}
		if tenant.StripeCustomerID == "" {
			return nil, huma.Error404NotFound("tenant has no billing account")
		}

		url, err := svc.PortalURL(ctx, tenant.StripeCustomerID, input.Body.ReturnURL)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to open portal", err)
		}

		out := &PortalOutput{}
		out.Body.URL = url
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-payments",
		Method:      http.MethodGet,
		Path:        "/billing/payments",
		Summary:     "List the tenant's payments",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *ListPaymentsInput) (*ListPaymentsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		payments, err := store.Billing().ListPayments(ctx, tenant.ID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list payments", err)
		}

		return &ListPaymentsOutput{Body: payments}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "stripe-webhook",
		Method:      http.MethodPost,
		Path:        "/billing/webhook",
		Summary:     "Receive Stripe events",
		Tags:        []string{"Billing"},
	}, func(ctx context.Context, input *WebhookInput) (*WebhookOutput, error) {
		event, err := hooks.VerifyEvent(input.RawBody, input.Signature)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid webhook signature")
		}

		if err = hooks.Process(ctx, event); err != nil {
			return nil, huma.Error500InternalServerError("failed to process event", err)
		}

		out := &WebhookOutput{}
		out.Body.Received = true
		return out, nil
	})
}
