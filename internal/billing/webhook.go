package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/base2ml/babyraffle/internal/domain"
)

// Processor applies verified Stripe events to tenant and billing state.
type Processor struct {
	client  *Client
	tenants domain.TenantRepository
	billing domain.BillingRepository
}

func NewProcessor(client *Client, tenants domain.TenantRepository, billing domain.BillingRepository) *Processor {
	return &Processor{client: client, tenants: tenants, billing: billing}
}

// VerifyEvent checks the webhook signature and parses the event.
func (p *Processor) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.client.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("billing.VerifyEvent: %w", err)
	}
	return event, nil
}

// Process dispatches one event. Unhandled event types are acknowledged
// silently so Stripe does not retry them.
func (p *Processor) Process(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		return p.paymentIntentStatus(ctx, event, domain.PaymentStatusSucceeded)
	case "payment_intent.payment_failed":
		return p.paymentIntentStatus(ctx, event, domain.PaymentStatusFailed)
	case "invoice.payment_succeeded":
		return p.invoicePaid(ctx, event)
	case "invoice.payment_failed":
		return p.invoiceFailed(ctx, event)
	case "customer.subscription.updated":
		return p.subscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return p.subscriptionDeleted(ctx, event)
	default:
		log.Debug().Str("type", string(event.Type)).Msg("billing: ignoring event")
		return nil
	}
}

func (p *Processor) paymentIntentStatus(ctx context.Context, event stripe.Event, status domain.PaymentStatus) error {
	var pi stripe.PaymentIntent
	err := json.Unmarshal(event.Data.Raw, &pi)
	if err != nil {
		return fmt.Errorf("billing: decode payment intent: %w", err)
	}

	err = p.billing.UpdatePaymentStatus(ctx, pi.ID, status)
	if errors.Is(err, domain.ErrNotFound) {
		// Intent created outside this system; nothing to record.
		return nil
	}
	return err
}

func (p *Processor) invoicePaid(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	err := json.Unmarshal(event.Data.Raw, &inv)
	if err != nil {
		return fmt.Errorf("billing: decode invoice: %w", err)
	}
	if inv.Customer == nil {
		return nil
	}

	return p.transitionTenant(ctx, inv.Customer.ID, domain.TenantStatusActive)
}

func (p *Processor) invoiceFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	err := json.Unmarshal(event.Data.Raw, &inv)
	if err != nil {
		return fmt.Errorf("billing: decode invoice: %w", err)
	}
	if inv.Customer == nil {
		return nil
	}

	return p.transitionTenant(ctx, inv.Customer.ID, domain.TenantStatusSuspended)
}

func (p *Processor) subscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	err := json.Unmarshal(event.Data.Raw, &sub)
	if err != nil {
		return fmt.Errorf("billing: decode subscription: %w", err)
	}

	stored, err := p.billing.GetSubscriptionByStripeID(ctx, sub.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return p.recordSubscription(ctx, &sub)
	}
	if err != nil {
		return err
	}

	stored.Status = mapSubscriptionStatus(sub.Status)
	stored.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	if plan, ok := planFromSubscription(p.client, &sub); ok {
		stored.Plan = plan
	}

	err = p.billing.UpdateSubscription(ctx, stored)
	if err != nil {
		return err
	}

	return p.syncTenantPlan(ctx, sub.Customer, stored.Plan)
}

func (p *Processor) subscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	err := json.Unmarshal(event.Data.Raw, &sub)
	if err != nil {
		return fmt.Errorf("billing: decode subscription: %w", err)
	}

	stored, err := p.billing.GetSubscriptionByStripeID(ctx, sub.ID)
	if err == nil {
		stored.Status = domain.SubscriptionStatusCanceled
		if updateErr := p.billing.UpdateSubscription(ctx, stored); updateErr != nil {
			return updateErr
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if sub.Customer == nil {
		return nil
	}

	// A canceled subscription drops the tenant back to the free plan and
	// suspends paid features.
	err = p.syncTenantPlan(ctx, sub.Customer, domain.PlanFree)
	if err != nil {
		return err
	}

	return p.transitionTenant(ctx, sub.Customer.ID, domain.TenantStatusSuspended)
}

func (p *Processor) recordSubscription(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil {
		return nil
	}

	tenant, err := p.tenants.GetByStripeCustomer(ctx, sub.Customer.ID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("customer", sub.Customer.ID).Msg("billing: subscription for unknown customer")
		return nil
	}
	if err != nil {
		return err
	}

	plan, _ := planFromSubscription(p.client, sub)
	now := time.Now().UTC()

	return p.billing.CreateSubscription(ctx, &domain.Subscription{
		ID:                   uuid.New(),
		TenantID:             tenant.ID,
		StripeSubscriptionID: sub.ID,
		Plan:                 plan,
		Status:               mapSubscriptionStatus(sub.Status),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CreatedAt:            now,
		UpdatedAt:            now,
	})
}

// transitionTenant moves the tenant identified by a Stripe customer id to the
// target status if the lifecycle allows it; disallowed transitions are logged
// and skipped rather than failing the webhook.
func (p *Processor) transitionTenant(ctx context.Context, customerID string, to domain.TenantStatus) error {
	tenant, err := p.tenants.GetByStripeCustomer(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("customer", customerID).Msg("billing: event for unknown customer")
		return nil
	}
	if err != nil {
		return err
	}

	if tenant.Status == to {
		return nil
	}
	if !tenant.Status.ValidTransition(to) {
		log.Warn().
			Str("tenant_id", tenant.ID.String()).
			Str("from", string(tenant.Status)).
			Str("to", string(to)).
			Msg("billing: skipping disallowed status transition")
		return nil
	}

	return p.tenants.UpdateStatus(ctx, tenant.ID, to)
}

func (p *Processor) syncTenantPlan(ctx context.Context, customer *stripe.Customer, plan domain.SubscriptionPlan) error {
	if customer == nil {
		return nil
	}

	tenant, err := p.tenants.GetByStripeCustomer(ctx, customer.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if tenant.Plan == plan {
		return nil
	}

	tenant.Plan = plan
	return p.tenants.Update(ctx, tenant)
}

func mapSubscriptionStatus(s stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncomplete:
		return domain.SubscriptionStatusPastDue
	default:
		return domain.SubscriptionStatusCanceled
	}
}

func planFromSubscription(c *Client, sub *stripe.Subscription) (domain.SubscriptionPlan, bool) {
	if sub.Items == nil {
		return "", false
	}
	for _, item := range sub.Items.Data {
		if item.Price == nil {
			continue
		}
		if plan, ok := c.PlanForPrice(item.Price.ID); ok {
			return plan, true
		}
	}
	return "", false
}
