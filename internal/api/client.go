package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	authenticationPath = "v6/authentication"
	authorizePath      = "oauth2/auth"
	tokenPath          = "oauth2/token"
	revokePath         = "oauth2/revoke"
)

// Config holds everything needed to construct a Client.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// PermanentToken, when set, is used for every request in preference to Token.
	PermanentToken string
	// Token is a previously obtained OAuth2 token. Its AccessToken must be set.
	Token *oauth2.Token

	// HTTPClient is used as-is when set. Otherwise a client is built from
	// Transport and Timeout.
	HTTPClient *http.Client
	Transport  http.RoundTripper
	Timeout    time.Duration
	UserAgent  string
}

// Client is the entry point applications construct and call endpoint
// methods on. It owns the OAuth2 configuration and the request executor.
type Client struct {
	exec      *Executor
	oauth     *oauth2.Config
	revokeURL string
}

// New creates a client from cfg. It fails with a *ConfigError when the base
// URL is malformed or cfg.Token carries no access token.
func New(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Transport, cfg.Timeout)
	}

	exec, err := NewExecutor(cfg.BaseURL, httpClient)
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent != "" {
		exec.UserAgent = cfg.UserAgent
	}

	authBase := exec.BaseURL + "/" + authenticationPath + "/"
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authBase + authorizePath,
			TokenURL:  authBase + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	exec.SetRefresher(oauthCfg)

	if cfg.PermanentToken != "" {
		exec.SetPermanentToken(cfg.PermanentToken)
	}
	if cfg.Token != nil {
		if strings.TrimSpace(cfg.Token.AccessToken) == "" {
			return nil, &ConfigError{Field: "token", Reason: "malformed token: access_token must be a non-empty string"}
		}
		exec.SetToken(cfg.Token)
	}

	return &Client{
		exec:      exec,
		oauth:     oauthCfg,
		revokeURL: authBase + revokePath,
	}, nil
}

// ParseToken decodes a stored OAuth2 token. It fails with a *ConfigError
// when the payload is not a JSON object with a string access_token.
func ParseToken(data []byte) (*oauth2.Token, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Field: "token", Reason: "malformed token", Err: err}
	}
	access, ok := raw["access_token"].(string)
	if !ok || strings.TrimSpace(access) == "" {
		return nil, &ConfigError{Field: "token", Reason: "malformed token: access_token must be a non-empty string"}
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, &ConfigError{Field: "token", Reason: "malformed token", Err: err}
	}
	if token.Expiry.IsZero() {
		if expiresIn, ok := raw["expires_in"].(float64); ok && expiresIn > 0 {
			token.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
		}
	}
	return &token, nil
}

// Executor returns the underlying request executor.
func (c *Client) Executor() *Executor {
	return c.exec
}

// Token returns the current OAuth2 token, which may have been refreshed
// since it was installed. Callers persisting credentials should read it
// after each session.
func (c *Client) Token() *oauth2.Token {
	return c.exec.Token()
}

// AuthorizationURL builds the provider's authorization URL for the
// configured redirect URI. It performs no network call.
func (c *Client) AuthorizationURL(state string, scopes ...string) string {
	var opts []oauth2.AuthCodeOption
	if len(scopes) > 0 {
		opts = append(opts, oauth2.SetAuthURLParam("scope", strings.Join(scopes, " ")))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// ExchangeCode trades an authorization code for a token, installs it on the
// executor and returns it. A configured permanent token still takes
// precedence for request signing.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if err := requireFields("auth", requiredField{"code", code}); err != nil {
		return nil, err
	}
	token, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	c.exec.SetToken(token)
	return token, nil
}

// RevokeToken revokes the current OAuth2 token at the provider and clears it
// from the executor.
func (c *Client) RevokeToken(ctx context.Context) error {
	token := c.exec.Token()
	if token == nil {
		return &CredentialError{Err: ErrNoCredential}
	}

	value, hint := token.AccessToken, "access_token"
	if token.RefreshToken != "" {
		value, hint = token.RefreshToken, "refresh_token"
	}
	form := url.Values{
		"token":           {value},
		"token_type_hint": {hint},
		"client_id":       {c.oauth.ClientID},
		"client_secret":   {c.oauth.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("User-Agent", c.exec.UserAgent)

	resp, err := c.exec.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if _, err := normalizeResponse(resp, body); err != nil {
		return err
	}

	c.exec.SetToken(nil)
	return nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.exec.HTTP)
}

// Send performs one authenticated round trip through the executor.
func (c *Client) Send(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	return c.exec.Send(ctx, method, path, params)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, result any) error {
	return c.exec.do(ctx, method, path, params, result)
}
