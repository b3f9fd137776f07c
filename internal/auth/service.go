package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrUnknownProvider = errors.New("auth: unknown oauth provider")
	ErrWrongTenant     = errors.New("auth: account belongs to a different tenant")
)

// Service drives the OAuth login flow and mints bearer tokens.
type Service struct {
	tenants   domain.TenantRepository
	users     domain.UserRepository
	providers map[string]*OAuthProvider
	jwtSecret string
	issuer    string
	accessTTL time.Duration
}

// NewService creates a new auth service. Providers with empty client IDs are
// not registered.
func NewService(tenants domain.TenantRepository, users domain.UserRepository, jwtSecret, issuer string, accessTTL time.Duration, providers ...*OAuthProvider) *Service {
	registered := make(map[string]*OAuthProvider, len(providers))
	for _, p := range providers {
		if p != nil && p.ClientID != "" {
			registered[p.Name] = p
		}
	}

	return &Service{
		tenants:   tenants,
		users:     users,
		providers: registered,
		jwtSecret: jwtSecret,
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// Provider returns a registered OAuth provider by name.
func (s *Service) Provider(name string) (*OAuthProvider, error) {
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("auth.Provider: %q: %w", name, ErrUnknownProvider)
	}
	return p, nil
}

// LoginURL returns the provider's authorization URL for the given state.
func (s *Service) LoginURL(providerName, state string) (string, error) {
	p, err := s.Provider(providerName)
	if err != nil {
		return "", err
	}
	return p.AuthorizationURL(state), nil
}

// HandleCallback completes the OAuth flow: exchanges the code, finds or
// creates the user mapped to the (provider, provider id) pair, and mints an
// access token bound to the user's tenant.
//
// tenantID is the tenant resolved from the request host, or uuid.Nil when the
// callback arrived on the onboarding host. An existing account that belongs to
// a different tenant than the resolved one is rejected.
func (s *Service) HandleCallback(ctx context.Context, providerName, code string, tenantID uuid.UUID) (string, *domain.User, error) {
	p, err := s.Provider(providerName)
	if err != nil {
		return "", nil, err
	}

	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("auth.HandleCallback: %w", err)
	}

	user, err := s.users.GetByOAuth(ctx, p.Name, info.ProviderID)
	switch {
	case err == nil:
		if tenantID != uuid.Nil && user.TenantID != tenantID {
			return "", nil, fmt.Errorf("auth.HandleCallback: %w", ErrWrongTenant)
		}
	case errors.Is(err, domain.ErrNotFound):
		user, err = s.createLinkedUser(ctx, p.Name, info, tenantID)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("auth.HandleCallback: %w", err)
	}

	if user.Status != domain.UserStatusActive {
		return "", nil, fmt.Errorf("auth.HandleCallback: %w", domain.ErrUnauthorized)
	}

	token, err := IssueAccessToken(s.jwtSecret, s.issuer, user.TenantID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", nil, fmt.Errorf("auth.HandleCallback: %w", err)
	}

	// Best-effort: a failed timestamp update must not fail the login.
	if updateErr := s.users.UpdateLastLogin(ctx, user.ID); updateErr != nil {
		log.Warn().Err(updateErr).Str("user_id", user.ID.String()).Msg("auth: failed to update last_login")
	}

	return token, user, nil
}

// createLinkedUser provisions a first-login user inside the resolved tenant.
// The tenant owner's email gets the owner role; everyone else starts as user.
func (s *Service) createLinkedUser(ctx context.Context, provider string, info *UserInfo, tenantID uuid.UUID) (*domain.User, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("auth.createLinkedUser: no tenant resolved: %w", domain.ErrNotFound)
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("auth.createLinkedUser: %w", err)
	}

	role := domain.RoleUser
	if info.Email != "" && strings.EqualFold(info.Email, tenant.OwnerEmail) {
		role = domain.RoleOwner
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New(),
		TenantID:      tenant.ID,
		Email:         info.Email,
		Name:          info.Name,
		Role:          role,
		Status:        domain.UserStatusActive,
		OAuthProvider: provider,
		OAuthID:       info.ProviderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.createLinkedUser: %w", err)
	}

	return user, nil
}
