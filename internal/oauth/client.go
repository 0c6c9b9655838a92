// Package oauth talks to the Bitrix24 token endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/metrics"
	"github.com/Harshitk-cp/crmgate/internal/transport"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// Settings are the OAuth application credentials.
type Settings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// MissingForExchange names the settings a code exchange needs but lacks.
func (s Settings) MissingForExchange() []string {
	missing := s.MissingForRefresh()
	if s.RedirectURI == "" {
		missing = append(missing, "REDIRECT_URI")
	}
	return missing
}

// MissingForRefresh names the settings a refresh needs but lacks.
func (s Settings) MissingForRefresh() []string {
	var missing []string
	if s.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if s.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	return missing
}

// Token is the token endpoint response.
type Token struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type Client struct {
	settings   Settings
	httpClient *http.Client
	scheme     string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithScheme overrides the URL scheme, "https" by default.
func WithScheme(scheme string) Option {
	return func(c *Client) { c.scheme = scheme }
}

func NewClient(settings Settings, opts ...Option) *Client {
	c := &Client{
		settings:   settings,
		httpClient: transport.NewHTTPClient(transport.DefaultTimeout),
		scheme:     "https",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Settings() Settings {
	return c.settings
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, portal, code string) (*Token, error) {
	if missing := c.settings.MissingForExchange(); len(missing) > 0 {
		return nil, domain.NewError(domain.ErrConfiguration, "Missing OAuth configuration: %s", strings.Join(missing, ", "))
	}
	form := url.Values{
		"grant_type":    {grantAuthorizationCode},
		"client_id":     {c.settings.ClientID},
		"client_secret": {c.settings.ClientSecret},
		"redirect_uri":  {c.settings.RedirectURI},
		"code":          {code},
	}
	tok, err := c.post(ctx, portal, form)
	metrics.ObserveTokenRequest(grantAuthorizationCode, err)
	return tok, err
}

// Refresh trades a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, portal, refreshToken string) (*Token, error) {
	if missing := c.settings.MissingForRefresh(); len(missing) > 0 {
		return nil, domain.NewError(domain.ErrConfiguration, "Missing OAuth configuration for refresh: %s", strings.Join(missing, ", "))
	}
	form := url.Values{
		"grant_type":    {grantRefreshToken},
		"client_id":     {c.settings.ClientID},
		"client_secret": {c.settings.ClientSecret},
		"refresh_token": {refreshToken},
	}
	tok, err := c.post(ctx, portal, form)
	metrics.ObserveTokenRequest(grantRefreshToken, err)
	return tok, err
}

func (c *Client) post(ctx context.Context, portal string, form url.Values) (*Token, error) {
	tokenURL := fmt.Sprintf("%s://%s/oauth/token/", c.scheme, portal)

	// Not cancelled with the caller: a half-finished grant would leave the
	// stored tokens out of step with the portal.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInternal, err, "create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transport.Classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transport.Classify(err)
	}

	var tok Token
	decodeErr := json.Unmarshal(body, &tok)
	if decodeErr == nil && tok.Error != "" {
		reason := tok.ErrorDescription
		if reason == "" {
			reason = tok.Error
		}
		return nil, &domain.Error{
			Kind:    domain.ErrRemoteAuth,
			Message: "Bitrix24 error: " + reason,
			Code:    tok.Error,
			Status:  resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.Error{
			Kind:    domain.ErrRemoteAuth,
			Message: fmt.Sprintf("Failed to exchange code for token: status %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}
	if decodeErr != nil {
		return nil, domain.WrapError(domain.ErrRemoteAuth, decodeErr, "Failed to exchange code for token: malformed response")
	}
	if tok.AccessToken == "" {
		return nil, domain.NewError(domain.ErrRemoteAuth, "Failed to exchange code for token: empty access token")
	}
	return &tok, nil
}

// DefaultExpiresIn is the lifetime assumed when the remote omits expires_in.
const DefaultExpiresIn = 3600

// Lifetime returns expires_in in seconds, or DefaultExpiresIn when unset.
func (t *Token) Lifetime() int {
	if t.ExpiresIn <= 0 {
		return DefaultExpiresIn
	}
	return t.ExpiresIn
}
