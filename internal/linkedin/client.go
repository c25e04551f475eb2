// Package linkedin talks to LinkedIn's OpenID Connect endpoints: building the consent URL,
// exchanging authorization codes and reading the member's profile.
package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	ProviderName   = "linkedin"
	profileBaseURL = "https://www.linkedin.com/in/"
	defaultTimeout = 10 * time.Second
)

// Scopes requested on every authorization.
var Scopes = []string{oidc.ScopeOpenID, "profile", "email"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Issuer       string
	Timeout      time.Duration
}

// Token is the result of a successful code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	ExpiresAt    int64 // unix seconds, 0 when the provider sent no expiry
}

// Profile is the normalized userinfo response.
type Profile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"-"`
}

// ProfileURL is the public LinkedIn page for a member id.
func ProfileURL(sub string) string {
	return profileBaseURL + sub
}

// Provider is the subset of the LinkedIn API the verification flow depends on.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Client implements Provider over golang.org/x/oauth2 and go-oidc.
type Client struct {
	config     *oauth2.Config
	provider   *oidc.Provider
	httpClient *http.Client
}

// NewClient builds a client from static endpoints. No discovery request is made.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	endpoint := oauth2.Endpoint{
		AuthURL:  cfg.AuthURL,
		TokenURL: cfg.TokenURL,
		// LinkedIn expects client credentials in the form body
		AuthStyle: oauth2.AuthStyleInParams,
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		provider: (&oidc.ProviderConfig{
			IssuerURL:   cfg.Issuer,
			AuthURL:     cfg.AuthURL,
			TokenURL:    cfg.TokenURL,
			UserInfoURL: cfg.UserInfoURL,
		}).NewProvider(context.Background()),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens. Any non-2xx response is an error.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := c.config.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		out.ExpiresAt = tok.Expiry.Unix()
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out, nil
}

// FetchProfile reads the userinfo endpoint with the member's access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	info, err := c.provider.UserInfo(c.withClient(ctx), src)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	var p Profile
	if err := info.Claims(&p); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if p.Sub == "" {
		p.Sub = info.Subject
	}
	p.EmailVerified = info.EmailVerified
	if p.Sub == "" {
		return nil, fmt.Errorf("userinfo response has no subject")
	}
	return &p, nil
}

func (c *Client) withClient(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.httpClient)
}
