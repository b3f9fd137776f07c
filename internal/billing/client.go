// Package billing wraps the Stripe API for subscription and payment flows
// and applies webhook events to tenant lifecycle state.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/domain"
)

type Client struct {
	api           *client.API
	webhookSecret string
	prices        map[domain.SubscriptionPlan]string
}

func NewClient(cfg config.BillingConfig) *Client {
	c := &Client{
		webhookSecret: cfg.StripeWebhookSecret,
		prices: map[domain.SubscriptionPlan]string{
			domain.PlanBasic:      cfg.BasicPriceID,
			domain.PlanPremium:    cfg.PremiumPriceID,
			domain.PlanEnterprise: cfg.EnterprisePriceID,
		},
	}

	if cfg.StripeSecretKey != "" {
		c.api = client.New(cfg.StripeSecretKey, nil)
	}

	return c
}

// Enabled reports whether a Stripe key was configured. When false, billing
// endpoints answer 503 instead of calling out.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// EnsureCustomer returns the tenant's Stripe customer id, creating the
// customer and persisting the id on first use.
func (c *Client) EnsureCustomer(ctx context.Context, tenants domain.TenantRepository, t *domain.Tenant) (string, error) {
	if t.StripeCustomerID != "" {
		return t.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(t.OwnerEmail),
		Name:  stripe.String(t.Name),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", t.ID.String())
	params.AddMetadata("subdomain", t.Subdomain)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("billing.EnsureCustomer: %w", err)
	}

	t.StripeCustomerID = cust.ID
	err = tenants.Update(ctx, t)
	if err != nil {
		return "", fmt.Errorf("billing.EnsureCustomer: persist: %w", err)
	}

	return cust.ID, nil
}

// CreatePaymentIntent opens a one-off payment of amount cents and returns the
// intent id and its client secret for the browser-side confirmation.
func (c *Client) CreatePaymentIntent(ctx context.Context, customerID string, amount int64, currency string) (id, clientSecret string, err error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return "", "", fmt.Errorf("billing.CreatePaymentIntent: %w", err)
	}

	return pi.ID, pi.ClientSecret, nil
}

// CreateSubscription subscribes the customer to the plan's configured price.
func (c *Client) CreateSubscription(ctx context.Context, customerID string, plan domain.SubscriptionPlan) (*stripe.Subscription, error) {
	priceID, ok := c.prices[plan]
	if !ok || priceID == "" {
		return nil, fmt.Errorf("billing.CreateSubscription: no price configured for plan %q: %w", plan, domain.ErrInvalid)
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx

	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing.CreateSubscription: %w", err)
	}

	return sub, nil
}

// PortalURL opens a Stripe billing portal session for self-serve subscription
// management.
func (c *Client) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing.PortalURL: %w", err)
	}

	return sess.URL, nil
}

// PlanForPrice maps a Stripe price id back to the plan it was configured for.
func (c *Client) PlanForPrice(priceID string) (domain.SubscriptionPlan, bool) {
	for plan, id := range c.prices {
		if id != "" && id == priceID {
			return plan, true
		}
	}
	return "", false
}
