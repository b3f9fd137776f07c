package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
)

type CreateTenantInput struct {
	Body struct {
		Subdomain  string `json:"subdomain" minLength:"1" maxLength:"63" doc:"DNS label the raffle site will live under"`
		Name       string `json:"name" minLength:"1" maxLength:"255" doc:"Display name, e.g. the family name"`
		OwnerEmail string `json:"owner_email" format:"email" doc:"Email that receives the owner role on first login"`
	}
}

type CreateTenantOutput struct {
	Body *domain.Tenant
}

type ValidateSubdomainInput struct {
	Subdomain string `path:"subdomain" maxLength:"63"`
}

type ValidateSubdomainOutput struct {
	Body struct {
		Subdomain string `json:"subdomain"`
		Available bool   `json:"available"`
		Reason    string `json:"reason,omitempty"`
	}
}

type TenantInfoOutput struct {
	Body *domain.Tenant
}

type UpdateTenantSettingsInput struct {
	Body struct {
		Name     string         `json:"name,omitempty" maxLength:"255"`
		Settings map[string]any `json:"settings,omitempty"`
	}
}

type TenantStatsOutput struct {
	Body *domain.TenantStats
}

type ListTenantUsersOutput struct {
	Body []*domain.User
}

type UpdateTenantUserInput struct {
	UserID uuid.UUID `path:"userID"`
	Body   struct {
		Role   domain.Role       `json:"role,omitempty" enum:"user,admin,owner"`
		Status domain.UserStatus `json:"status,omitempty" enum:"active,inactive"`
	}
}

type UpdateTenantUserOutput struct {
	Body *domain.User
}

type ListTenantsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50"`
	Offset int `query:"offset" minimum:"0" default:"0"`
}

type ListTenantsOutput struct {
	Body []*domain.Tenant
}

func RegisterTenantRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/tenant/create",
		Summary:     "Sign up a new raffle site",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		if !domain.ValidSubdomain(input.Body.Subdomain) {
			return nil, huma.Error400BadRequest("subdomain is invalid or reserved")
		}

		now := time.Now()
		t := &domain.Tenant{
			ID:         uuid.New(),
			Subdomain:  input.Body.Subdomain,
			Name:       input.Body.Name,
			OwnerEmail: input.Body.OwnerEmail,
			Status:     domain.TenantStatusTrial,
			Plan:       domain.PlanFree,
			Settings:   map[string]any{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := store.Tenants().Create(ctx, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("subdomain is already taken")
			}
			return nil, huma.Error500InternalServerError("failed to create tenant", err)
		}

		return &CreateTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-subdomain",
		Method:      http.MethodGet,
		Path:        "/tenant/validate-subdomain/{subdomain}",
		Summary:     "Check whether a subdomain can be claimed",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ValidateSubdomainInput) (*ValidateSubdomainOutput, error) {
		out := &ValidateSubdomainOutput{}
		out.Body.Subdomain = input.Subdomain

		if !domain.ValidSubdomain(input.Subdomain) {
			out.Body.Reason = "invalid or reserved"
			return out, nil
		}

		_, err := store.Tenants().GetBySubdomain(ctx, input.Subdomain)
		switch {
		case err == nil:
			out.Body.Reason = "already taken"
		case errors.Is(err, domain.ErrNotFound):
			out.Body.Available = true
		default:
			return nil, huma.Error500InternalServerError("failed to check subdomain", err)
		}

		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant-info",
		Method:      http.MethodGet,
		Path:        "/tenant/info",
		Summary:     "Get the current tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*TenantInfoOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		return &TenantInfoOutput{Body: tenant}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant-settings",
		Method:      http.MethodPut,
		Path:        "/tenant/settings",
		Summary:     "Update tenant name and settings",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantSettingsInput) (*TenantInfoOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		if input.Body.Name != "" {
			tenant.Name = input.Body.Name
		}
		if input.Body.Settings != nil {
			tenant.Settings = input.Body.Settings
		}

		if err = store.Tenants().Update(ctx, tenant); err != nil {
			return nil, huma.Error500InternalServerError("failed to update tenant", err)
		}

		return &TenantInfoOutput{Body: tenant}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant-stats",
		Method:      http.MethodGet,
		Path:        "/tenant/stats",
		Summary:     "Bet and user counts for the current tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*TenantStatsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		stats, err := store.Tenants().Stats(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load stats", err)
		}

		return &TenantStatsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenant-users",
		Method:      http.MethodGet,
		Path:        "/tenant/users",
		Summary:     "List users of the current tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantUsersOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		users, err := store.Users().List(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}

		return &ListTenantUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenant/list",
		Summary:     "List all tenants (platform operators only)",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		if _, err := requireRole(ctx, domain.RoleOwner); err != nil {
			return nil, err
		}

		tenants, err := store.Tenants().List(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tenants", err)
		}

		return &ListTenantsOutput{Body: tenants}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant-user",
		Method:      http.MethodPut,
		Path:        "/tenant/users/{userID}",
		Summary:     "Change a user's role or status",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantUserInput) (*UpdateTenantUserOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		caller, err := requireRole(ctx, domain.RoleOwner)
		if err != nil {
			return nil, err
		}
		if caller.ID == input.UserID {
			return nil, huma.Error400BadRequest("owners cannot change their own account")
		}

		user, err := store.Users().GetByID(ctx, tenant.ID, input.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to load user", err)
		}

		if input.Body.Role != "" {
			user.Role = input.Body.Role
		}
		if input.Body.Status != "" {
			user.Status = input.Body.Status
		}

		if err = store.Users().Update(ctx, user); err != nil {
			return nil, huma.Error500InternalServerError("failed to update user", err)
		}

		return &UpdateTenantUserOutput{Body: user}, nil
	})
}
