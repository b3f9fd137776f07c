package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
	"github.com/base2ml/babyraffle/internal/metrics"
)

type CreateCategoryInput struct {
	Body struct {
		Key         string `json:"key" minLength:"1" maxLength:"50" doc:"URL-safe identifier, unique per tenant"`
		Name        string `json:"name" minLength:"1" maxLength:"255"`
		Description string `json:"description,omitempty" maxLength:"2000"`
		BetPrice    int64  `json:"bet_price" minimum:"1" doc:"Price per bet in cents"`
		SortOrder   int    `json:"sort_order,omitempty"`
	}
}

type CategoryOutput struct {
	Body *domain.Category
}

type ListCategoriesOutput struct {
	Body []*domain.Category
}

type UpdateCategoryInput struct {
	CategoryID uuid.UUID `path:"categoryID"`
	Body       struct {
		Name        string `json:"name,omitempty" maxLength:"255"`
		Description string `json:"description,omitempty" maxLength:"2000"`
		BetPrice    int64  `json:"bet_price,omitempty" minimum:"0"`
		IsActive    *bool  `json:"is_active,omitempty"`
		SortOrder   *int   `json:"sort_order,omitempty"`
	}
}

type DeleteCategoryInput struct {
	CategoryID uuid.UUID `path:"categoryID"`
}

type betEntry struct {
	CategoryID uuid.UUID `json:"category_id"`
	BetValue   string    `json:"bet_value" minLength:"1" maxLength:"500" doc:"The guessed value"`
	Amount     int64     `json:"amount" minimum:"1" doc:"Cents; must equal the category's bet price"`
}

type SubmitBetsInput struct {
	Body struct {
		UserName  string     `json:"user_name" minLength:"1" maxLength:"255" doc:"Display name shown on the board"`
		UserEmail string     `json:"user_email" format:"email"`
		Bets      []betEntry `json:"bets" minItems:"1" maxItems:"50"`
	}
}

type SubmitBetsOutput struct {
	Body struct {
		Submitted   int   `json:"submitted"`
		TotalAmount int64 `json:"total_amount" doc:"Cents"`
	}
}

type ListBetsInput struct {
	ValidatedOnly bool `query:"validated_only" default:"false"`
	Limit         int  `query:"limit" minimum:"1" maximum:"500" default:"100"`
}

type ListBetsOutput struct {
	Body []*domain.Bet
}

type ValidateBetsInput struct {
	Body struct {
		BetIDs []uuid.UUID `json:"bet_ids" minItems:"1" maxItems:"500"`
	}
}

type ValidateBetsOutput struct {
	Body struct {
		Validated int64 `json:"validated"`
	}
}

func RegisterRaffleRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/raffle/categories",
		Summary:     "List bet categories",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		categories, err := store.Categories().List(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list categories", err)
		}

		return &ListCategoriesOutput{Body: categories}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-category",
		Method:      http.MethodPost,
		Path:        "/raffle/categories",
		Summary:     "Create a bet category",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}
		if !domain.ValidCategoryKey(input.Body.Key) {
			return nil, huma.Error400BadRequest("key must be lowercase alphanumeric or underscore")
		}

		now := time.Now()
		c := &domain.Category{
			ID:          uuid.New(),
			TenantID:    tenant.ID,
			Key:         input.Body.Key,
			Name:        input.Body.Name,
			Description: input.Body.Description,
			BetPrice:    input.Body.BetPrice,
			IsActive:    true,
			SortOrder:   input.Body.SortOrder,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err = store.Categories().Create(ctx, c); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("category key already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create category", err)
		}

		return &CategoryOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-category",
		Method:      http.MethodPut,
		Path:        "/raffle/categories/{categoryID}",
		Summary:     "Update a bet category",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		c, err := store.Categories().GetByID(ctx, tenant.ID, input.CategoryID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("category not found")
			}
			return nil, huma.Error500InternalServerError("failed to load category", err)
		}

		if input.Body.Name != "" {
			c.Name = input.Body.Name
		}
		if input.Body.Description != "" {
			c.Description = input.Body.Description
		}
		if input.Body.BetPrice > 0 {
			c.BetPrice = input.Body.BetPrice
		}
		if input.Body.IsActive != nil {
			c.IsActive = *input.Body.IsActive
		}
		if input.Body.SortOrder != nil {
			c.SortOrder = *input.Body.SortOrder
		}

		if err = store.Categories().Update(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to update category", err)
		}

		return &CategoryOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-category",
		Method:      http.MethodDelete,
		Path:        "/raffle/categories/{categoryID}",
		Summary:     "Delete a bet category",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *DeleteCategoryInput) (*struct{}, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		if err = store.Categories().Delete(ctx, tenant.ID, input.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("category not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete category", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-bets",
		Method:      http.MethodPost,
		Path:        "/raffle/bets",
		Summary:     "Submit a batch of bets",
		Description: "All bets are committed atomically; one invalid bet rejects the whole batch.",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *SubmitBetsInput) (*SubmitBetsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		var total int64
		bets := make([]*domain.Bet, 0, len(input.Body.Bets))
		for _, e := range input.Body.Bets {
			bets = append(bets, &domain.Bet{
				ID:         uuid.New(),
				TenantID:   tenant.ID,
				CategoryID: e.CategoryID,
				UserName:   input.Body.UserName,
				UserEmail:  input.Body.UserEmail,
				BetValue:   e.BetValue,
				Amount:     e.Amount,
				CreatedAt:  now,
			})
			total += e.Amount
		}

		if err = store.Bets().SubmitAll(ctx, tenant.ID, bets); err != nil {
			if errors.Is(err, domain.ErrInvalid) {
				return nil, huma.Error400BadRequest(err.Error())
			}
			return nil, huma.Error500InternalServerError("failed to submit bets", err)
		}

		metrics.BetsSubmitted.WithLabelValues(tenant.Subdomain).Add(float64(len(bets)))

		out := &SubmitBetsOutput{}
		out.Body.Submitted = len(bets)
		out.Body.TotalAmount = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bets",
		Method:      http.MethodGet,
		Path:        "/raffle/bets",
		Summary:     "List bets",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *ListBetsInput) (*ListBetsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		bets, err := store.Bets().List(ctx, tenant.ID, input.ValidatedOnly, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list bets", err)
		}

		return &ListBetsOutput{Body: bets}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-bets",
		Method:      http.MethodPost,
		Path:        "/raffle/bets/validate",
		Summary:     "Mark bets as paid",
		Tags:        []string{"Raffle"},
	}, func(ctx context.Context, input *ValidateBetsInput) (*ValidateBetsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		n, err := store.Bets().Validate(ctx, tenant.ID, input.Body.BetIDs)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to validate bets", err)
		}

		out := &ValidateBetsOutput{}
		out.Body.Validated = n
		return out, nil
	})
}
