package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/base2ml/babyraffle/internal/auth"
	"github.com/base2ml/babyraffle/internal/domain"
	"github.com/base2ml/babyraffle/internal/server/middleware"
)

type LoginInput struct {
	Provider string `query:"provider" enum:"google,apple" default:"google" doc:"Identity provider"`
	State    string `query:"state" maxLength:"512" doc:"Opaque value echoed back on the callback"`
}

type LoginOutput struct {
	Body struct {
		AuthURL string `json:"auth_url" doc:"Provider authorization URL to redirect the browser to"`
	}
}

type CallbackInput struct {
	Provider string `query:"provider" enum:"google,apple" default:"google"`
	Code     string `query:"code" minLength:"1" doc:"Authorization code returned by the provider"`
	State    string `query:"state" maxLength:"512"`
}

type CallbackOutput struct {
	Body struct {
		AccessToken string       `json:"access_token"`
		TokenType   string       `json:"token_type"`
		User        *domain.User `json:"user"`
		State       string       `json:"state,omitempty"`
	}
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodGet,
		Path:        "/auth/login",
		Summary:     "Start an OAuth login",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		url, err := authSvc.LoginURL(input.Provider, input.State)
		if err != nil {
			if errors.Is(err, auth.ErrUnknownProvider) {
				return nil, huma.Error400BadRequest("unknown or unconfigured provider")
			}
			return nil, huma.Error500InternalServerError("failed to build login url", err)
		}

		out := &LoginOutput{}
		out.Body.AuthURL = url
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "auth-callback",
		Method:      http.MethodGet,
		Path:        "/auth/callback",
		Summary:     "Complete an OAuth login",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
		tenantID := middleware.TenantIDFromContext(ctx)

		token, user, err := authSvc.HandleCallback(ctx, input.Provider, input.Code, tenantID)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUnknownProvider):
				return nil, huma.Error400BadRequest("unknown or unconfigured provider")
			case errors.Is(err, auth.ErrWrongTenant):
				return nil, huma.Error403Forbidden("account belongs to a different tenant")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("no tenant registered for this host")
			case errors.Is(err, domain.ErrUnauthorized):
				return nil, huma.Error401Unauthorized("account is not active")
			default:
				return nil, huma.Error500InternalServerError("login failed", err)
			}
		}

		out := &CallbackOutput{}
		out.Body.AccessToken = token
		out.Body.TokenType = "Bearer"
		out.Body.User = user
		out.Body.State = input.State
		return out, nil
	})
}
