package domain

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Category is one raffle question a visitor can bet on
// (e.g. "birth date", "weight").
type Category struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Key         string // URL-safe identifier, unique per tenant
	Name        string
	Description string
	BetPrice    int64 // cents; every bet on this category costs exactly this
	IsActive    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var categoryKeyPattern = regexp.MustCompile(`^[a-z0-9_]{1,50}$`)

// ValidCategoryKey reports whether key is a lowercase alphanumeric/underscore key.
func ValidCategoryKey(key string) bool {
	return categoryKeyPattern.MatchString(key)
}

type Bet struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	CategoryID uuid.UUID
	UserName   string
	UserEmail  string
	BetValue   string // the guessed value, free text
	Amount     int64  // cents, must equal the category's BetPrice
	Validated  bool   // set by an admin once payment is confirmed
	CreatedAt  time.Time
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type BetRepository interface {
	// SubmitAll inserts all bets in a single transaction. Every bet's category
	// must exist for the tenant, be active, and have a price equal to the bet
	// amount; otherwise no row is committed and the error wraps ErrInvalid.
	SubmitAll(ctx context.Context, tenantID uuid.UUID, bets []*Bet) error
	List(ctx context.Context, tenantID uuid.UUID, validatedOnly bool, limit int) ([]*Bet, error)
	// Validate marks the given bets as validated within one transaction.
	Validate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
}
