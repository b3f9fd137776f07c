package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/base2ml/babyraffle/internal/api/v1"
	"github.com/base2ml/babyraffle/internal/domain"
)

// ---------------------------------------------------------------------------
// TestCreateTenant
// ---------------------------------------------------------------------------

func TestCreateTenant(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var created *domain.Tenant
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				createFunc: func(_ context.Context, tn *domain.Tenant) error {
					created = tn
					return nil
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.Post("/tenant/create", map[string]any{
			"subdomain":   "smith",
			"name":        "Smith Family",
			"owner_email": "mom@example.com",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, created)
		assert.Equal(t, "smith", created.Subdomain)
		assert.Equal(t, domain.TenantStatusTrial, created.Status)
		assert.Equal(t, domain.PlanFree, created.Plan)
		assert.Equal(t, "mom@example.com", created.OwnerEmail)
	})

	t.Run("reserved_subdomain", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		resp := api.Post("/tenant/create", map[string]any{
			"subdomain":   "www",
			"name":        "Nope",
			"owner_email": "x@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("duplicate_subdomain", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				createFunc: func(context.Context, *domain.Tenant) error {
					return domain.ErrConflict
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.Post("/tenant/create", map[string]any{
			"subdomain":   "smith",
			"name":        "Smith Family",
			"owner_email": "mom@example.com",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestValidateSubdomain
// ---------------------------------------------------------------------------

func TestValidateSubdomain(t *testing.T) {
	t.Parallel()

	check := func(t *testing.T, store *mockDataStore, subdomain string) (bool, string) {
		t.Helper()
		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, store)

		resp := api.Get("/tenant/validate-subdomain/" + subdomain)
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Available bool   `json:"available"`
			Reason    string `json:"reason"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body.Available, body.Reason
	}

	t.Run("available", func(t *testing.T) {
		t.Parallel()

		store := &mockDataStore{
			tenants: &mockTenantRepo{
				getBySubdomainFunc: func(context.Context, string) (*domain.Tenant, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		available, _ := check(t, store, "jones")
		assert.True(t, available)
	})

	t.Run("taken", func(t *testing.T) {
		t.Parallel()

		store := &mockDataStore{
			tenants: &mockTenantRepo{
				getBySubdomainFunc: func(context.Context, string) (*domain.Tenant, error) {
					return fixedTenant(), nil
				},
			},
		}
		available, reason := check(t, store, "smith")
		assert.False(t, available)
		assert.Equal(t, "already taken", reason)
	})

	t.Run("reserved", func(t *testing.T) {
		t.Parallel()

		available, reason := check(t, &mockDataStore{}, "api")
		assert.False(t, available)
		assert.Equal(t, "invalid or reserved", reason)
	})
}

// ---------------------------------------------------------------------------
// TestTenantInfo
// ---------------------------------------------------------------------------

func TestTenantInfo(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		tenant := fixedTenant()
		resp := api.GetCtx(tenantCtx(tenant), "/tenant/info")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Tenant
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tenant.ID, body.ID)
		assert.Equal(t, "smith", body.Subdomain)
	})

	t.Run("no_tenant_in_context", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		resp := api.Get("/tenant/info")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestUpdateTenantSettings
// ---------------------------------------------------------------------------

func TestUpdateTenantSettings(t *testing.T) {
	t.Parallel()

	t.Run("admin_updates_name", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		var updated *domain.Tenant
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				updateFunc: func(_ context.Context, tn *domain.Tenant) error {
					updated = tn
					return nil
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		tenant := fixedTenant()
		resp := api.PutCtx(userCtx(tenant, domain.RoleAdmin), "/tenant/settings", map[string]any{
			"name": "Smith-Jones Family",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, updated)
		assert.Equal(t, "Smith-Jones Family", updated.Name)
	})

	t.Run("plain_user_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		tenant := fixedTenant()
		resp := api.PutCtx(userCtx(tenant, domain.RoleUser), "/tenant/settings", map[string]any{
			"name": "Hacked",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("anonymous_unauthorized", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		tenant := fixedTenant()
		resp := api.PutCtx(tenantCtx(tenant), "/tenant/settings", map[string]any{
			"name": "Nope",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestTenantStats
// ---------------------------------------------------------------------------

func TestTenantStats(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				statsFunc: func(_ context.Context, id uuid.UUID) (*domain.TenantStats, error) {
					assert.Equal(t, tenant.ID, id)
					return &domain.TenantStats{
						TotalBets:     12,
						ValidatedBets: 7,
						TotalAmount:   6000,
						TotalUsers:    3,
						CategoryCounts: map[string]int64{
							"birth_date": 8,
							"weight":     4,
						},
					}, nil
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.GetCtx(userCtx(tenant, domain.RoleAdmin), "/tenant/stats")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.TenantStats
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(12), body.TotalBets)
		assert.Equal(t, int64(6000), body.TotalAmount)
		assert.Equal(t, int64(8), body.CategoryCounts["birth_date"])
	})

	t.Run("plain_user_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		resp := api.GetCtx(userCtx(fixedTenant(), domain.RoleUser), "/tenant/stats")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestUpdateTenantUser
// ---------------------------------------------------------------------------

func TestUpdateTenantUser(t *testing.T) {
	t.Parallel()

	t.Run("owner_promotes_user", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		tenant := fixedTenant()
		target := &domain.User{
			ID:       uuid.New(),
			TenantID: tenant.ID,
			Email:    "helper@example.com",
			Role:     domain.RoleUser,
			Status:   domain.UserStatusActive,
		}
		var updated *domain.User
		store := &mockDataStore{
			users: &mockUserRepo{
				getByIDFunc: func(_ context.Context, tid, id uuid.UUID) (*domain.User, error) {
					assert.Equal(t, tenant.ID, tid)
					assert.Equal(t, target.ID, id)
					return target, nil
				},
				updateFunc: func(_ context.Context, u *domain.User) error {
					updated = u
					return nil
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.PutCtx(userCtx(tenant, domain.RoleOwner), "/tenant/users/"+target.ID.String(), map[string]any{
			"role": "admin",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, updated)
		assert.Equal(t, domain.RoleAdmin, updated.Role)
	})

	t.Run("admin_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		resp := api.PutCtx(userCtx(fixedTenant(), domain.RoleAdmin), "/tenant/users/"+uuid.NewString(), map[string]any{
			"role": "admin",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("unknown_user", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			users: &mockUserRepo{
				getByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.User, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.PutCtx(userCtx(fixedTenant(), domain.RoleOwner), "/tenant/users/"+uuid.NewString(), map[string]any{
			"status": "inactive",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestListTenants
// ---------------------------------------------------------------------------

func TestListTenants(t *testing.T) {
	t.Parallel()

	t.Run("owner_lists", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				listFunc: func(_ context.Context, limit, offset int) ([]*domain.Tenant, error) {
					assert.Equal(t, 50, limit)
					assert.Equal(t, 0, offset)
					return []*domain.Tenant{fixedTenant()}, nil
				},
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.GetCtx(userCtx(fixedTenant(), domain.RoleOwner), "/tenant/list")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.Tenant
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "smith", body[0].Subdomain)
	})

	t.Run("admin_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockDataStore{})

		resp := api.GetCtx(userCtx(fixedTenant(), domain.RoleAdmin), "/tenant/list")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
