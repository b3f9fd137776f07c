package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/base2ml/babyraffle/internal/api/v1"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterAuthRoutes(api, deps.Auth)
	v1.RegisterTenantRoutes(api, deps.Store)
	v1.RegisterRaffleRoutes(api, deps.Store)
	v1.RegisterBillingRoutes(api, deps.Store, deps.Billing, deps.BillingHooks)
	v1.RegisterSiteRoutes(api, deps.Store)
	v1.RegisterFileRoutes(api, deps.Store, deps.Files)
	v1.RegisterDeployRoutes(api, deps.Store, deps.Deployer)
}
