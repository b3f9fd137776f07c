package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/base2ml/babyraffle/internal/deploy"
	"github.com/base2ml/babyraffle/internal/domain"
	"github.com/base2ml/babyraffle/internal/metrics"
)

type DeployOutput struct {
	Body *domain.Deployment
}

type ListDeploymentsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"100" default:"20"`
}

type ListDeploymentsOutput struct {
	Body []*domain.Deployment
}

func RegisterDeployRoutes(api huma.API, store DataStore, deployer Deployer) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-deploy",
		Method:      http.MethodPost,
		Path:        "/deploy",
		Summary:     "Publish the tenant's raffle site",
		Tags:        []string{"Deploy"},
	}, func(ctx context.Context, _ *struct{}) (*DeployOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		user, err := requireRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if !deployer.Enabled() {
			return nil, huma.Error503ServiceUnavailable("deployments are not configured")
		}

		d, err := deployer.Deploy(ctx, tenant, user.ID)
		if err != nil {
			if errors.Is(err, deploy.ErrThrottled) {
				return nil, huma.Error429TooManyRequests("deploys are triggered too frequently")
			}
			return nil, huma.Error500InternalServerError("failed to trigger deploy", err)
		}

		metrics.DeploysTriggered.WithLabelValues(tenant.Subdomain, string(d.Status)).Inc()

		return &DeployOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-deployments",
		Method:      http.MethodGet,
		Path:        "/deploy/history",
		Summary:     "List past deployments",
		Tags:        []string{"Deploy"},
	}, func(ctx context.Context, input *ListDeploymentsInput) (*ListDeploymentsOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		list, err := store.Site().ListDeployments(ctx, tenant.ID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list deployments", err)
		}

		return &ListDeploymentsOutput{Body: list}, nil
	})
}
