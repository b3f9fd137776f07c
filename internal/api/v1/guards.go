package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/base2ml/babyraffle/internal/domain"
	"github.com/base2ml/babyraffle/internal/server/middleware"
)

func requireTenant(ctx context.Context) (*domain.Tenant, error) {
	tenant, ok := middleware.TenantFromContext(ctx)
	if !ok {
		return nil, huma.Error403Forbidden("missing tenant context")
	}
	return tenant, nil
}

func requireUser(ctx context.Context) (*domain.User, error) {
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	return user, nil
}

func requireRole(ctx context.Context, min domain.Role) (*domain.User, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.Role.AtLeast(min) {
		return nil, huma.Error403Forbidden("insufficient role")
	}
	return user, nil
}
