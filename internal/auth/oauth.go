package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthProvider holds the configuration for an OAuth2 identity provider.
type OAuthProvider struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	RedirectURL  string

	// HTTPClient overrides the client used for user-info fetches (tests).
	HTTPClient HTTPClient

	// oauthConfig is the compiled oauth2.Config.
	oauthConfig *oauth2.Config
}

// HTTPClient abstracts http.Client for user-info fetches.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// UserInfo is the provider-side identity returned by a code exchange.
type UserInfo struct {
	ProviderID string
	Email      string
	Name       string
}

// NewGoogleProvider returns an OAuth2 configuration for Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	p := &OAuthProvider{
		Name:         "google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      google.Endpoint.AuthURL,
		TokenURL:     google.Endpoint.TokenURL,
		UserInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		Scopes:       []string{"openid", "email", "profile"},
		RedirectURL:  redirectURL,
	}
	p.oauthConfig = p.buildConfig()
	return p
}

// NewAppleProvider returns an OAuth2 configuration for Sign in with Apple.
// Apple has no userinfo endpoint; identity comes from the id_token in the
// token response.
func NewAppleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	p := &OAuthProvider{
		Name:         "apple",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      "https://appleid.apple.com/auth/authorize",
		TokenURL:     "https://appleid.apple.com/auth/token",
		Scopes:       []string{"name", "email"},
		RedirectURL:  redirectURL,
	}
	p.oauthConfig = p.buildConfig()
	return p
}

func (p *OAuthProvider) buildConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
		Scopes:      p.Scopes,
		RedirectURL: p.RedirectURL,
	}
}

// AuthorizationURL returns the OAuth2 authorization URL with the given state parameter.
func (p *OAuthProvider) AuthorizationURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens and resolves the
// provider-side identity.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth.ExchangeCode: %w", err)
	}

	switch p.Name {
	case "google":
		return p.fetchGoogleUserInfo(ctx, token)
	case "apple":
		return parseAppleIDToken(token)
	default:
		return nil, fmt.Errorf("auth.ExchangeCode: unsupported provider %q", p.Name)
	}
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *OAuthProvider) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	var client HTTPClient = p.HTTPClient
	if client == nil {
		client = p.oauthConfig.Client(ctx, token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: user info returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: reading user info: %w", err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: %w", err)
	}

	if info.ID == "" {
		return nil, fmt.Errorf("auth.fetchGoogleUserInfo: missing subject in user info")
	}

	return &UserInfo{ProviderID: info.ID, Email: info.Email, Name: info.Name}, nil
}

type appleIDTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// parseAppleIDToken extracts identity from the id_token in Apple's token
// response. The token arrived over the TLS token-endpoint exchange, so its
// signature is not re-verified here.
func parseAppleIDToken(token *oauth2.Token) (*UserInfo, error) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("auth.parseAppleIDToken: token response has no id_token")
	}

	claims := &appleIDTokenClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return nil, fmt.Errorf("auth.parseAppleIDToken: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("auth.parseAppleIDToken: id_token has no subject")
	}

	return &UserInfo{ProviderID: claims.Subject, Email: claims.Email, Name: claims.Email}, nil
}
