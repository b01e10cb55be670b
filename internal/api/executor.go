package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/bynder/bynder-cli/internal/validation"
)

const (
	DefaultTimeout = 30 * time.Second

	formContentType = "application/x-www-form-urlencoded"
	refreshKey      = "token"
)

// Version is the library version reported in the User-Agent header.
// It is set at build time via ldflags.
var Version = "dev"

// DefaultUserAgent identifies this library and its version.
func DefaultUserAgent() string {
	return "bynder-cli/" + Version
}

var emptyObject = json.RawMessage("{}")

// TokenRefresher issues a token source able to refresh an expired token.
// *oauth2.Config satisfies it.
type TokenRefresher interface {
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

// Executor performs authenticated HTTP round trips against the API.
//
// It holds one credential slot. A permanent token always wins over an OAuth2
// token; an expired OAuth2 token is refreshed before use and replaced in
// place. Concurrent callers that observe the same expired token share one
// refresh.
type Executor struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string

	refresher    TokenRefresher
	refreshGroup singleflight.Group

	mu             sync.Mutex
	permanentToken string
	token          *oauth2.Token
}

// Compile-time interface implementation checks
var (
	_ Requester = (*Executor)(nil)
	_ Requester = (*Client)(nil)
)

// NewExecutor creates an executor for baseURL. The HTTP client is used as
// given; nil selects a client with DefaultTimeout and TLS 1.2 or later.
func NewExecutor(baseURL string, httpClient *http.Client) (*Executor, error) {
	if err := validation.ValidateBaseURL(baseURL); err != nil {
		return nil, &ConfigError{Field: "base_url", Reason: "base URL must be an absolute http(s) URL", Err: err}
	}
	if httpClient == nil {
		httpClient = newHTTPClient(nil, DefaultTimeout)
	}
	return &Executor{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      httpClient,
		UserAgent: DefaultUserAgent(),
	}, nil
}

func newHTTPClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	if transport == nil {
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			baseTransport = &http.Transport{}
		}
		t := baseTransport.Clone()
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		} else {
			t.TLSClientConfig = t.TLSClientConfig.Clone()
		}
		t.TLSClientConfig.MinVersion = tls.VersionTLS12
		transport = t
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// SetRefresher installs the source used to refresh expired OAuth2 tokens.
func (e *Executor) SetRefresher(r TokenRefresher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresher = r
}

// SetPermanentToken installs a static token. It takes precedence over any
// OAuth2 token for every subsequent request.
func (e *Executor) SetPermanentToken(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.permanentToken = strings.TrimSpace(token)
}

// SetToken replaces the OAuth2 token. It does not affect a permanent token.
func (e *Executor) SetToken(token *oauth2.Token) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token = token
}

// Token returns the current OAuth2 token, or nil.
func (e *Executor) Token() *oauth2.Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

// HasCredential reports whether any credential is configured.
func (e *Executor) HasCredential() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.permanentToken != "" || e.token != nil
}

// target joins the base URL and path with exactly one slash between them
// and a trailing slash. An empty path addresses the base URL itself.
func (e *Executor) target(path string) string {
	path = strings.TrimLeft(path, "/")
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return strings.TrimRight(e.BaseURL, "/") + "/" + path
}

// bearer resolves the value for the Authorization header, refreshing an
// expired OAuth2 token first.
func (e *Executor) bearer(ctx context.Context) (string, error) {
	e.mu.Lock()
	permanent, token := e.permanentToken, e.token
	e.mu.Unlock()

	if permanent != "" {
		return permanent, nil
	}
	if token == nil {
		return "", &CredentialError{Err: ErrNoCredential}
	}
	if token.Valid() {
		return token.AccessToken, nil
	}

	refreshed, err := e.refresh(ctx, token)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// refresh exchanges the stale token for a new one. Callers racing on the
// same executor wait for the single in-flight refresh. The shared exchange
// ignores the leader's cancellation; each caller stops waiting when its own
// context is done.
func (e *Executor) refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	shared := context.WithoutCancel(ctx)
	ch := e.refreshGroup.DoChan(refreshKey, func() (any, error) {
		e.mu.Lock()
		current, refresher := e.token, e.refresher
		e.mu.Unlock()

		// Another caller finished a refresh after we read the stale token.
		if current != nil && current != stale && current.Valid() {
			return current, nil
		}
		if current == nil {
			current = stale
		}
		if refresher == nil {
			return nil, &CredentialError{Reason: "token expired and no refresher is configured"}
		}

		start := time.Now()
		next, err := refresher.TokenSource(context.WithValue(shared, oauth2.HTTPClient, e.HTTP), current).Token()
		if err != nil {
			zerolog.Ctx(shared).Debug().Err(err).Msg("token refresh failed")
			return nil, &CredentialError{Reason: "token refresh failed", Err: err}
		}
		zerolog.Ctx(shared).Debug().Time("expiry", next.Expiry).Dur("duration", time.Since(start)).Msg("token refreshed")

		e.mu.Lock()
		e.token = next
		e.mu.Unlock()
		return next, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Send performs one authenticated HTTP round trip.
//
// For POST the params are form-url-encoded into the request entity; for
// other verbs non-empty params become the query string. Status >= 400 yields
// an *APIError, 200-202 yields the response body and any other status yields
// an empty JSON object.
func (e *Executor) Send(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	target := e.target(path)

	bearer, err := e.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	if method == http.MethodPost {
		body = strings.NewReader(params.Encode())
		contentType = formContentType
	} else if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	userAgent := e.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent()
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := e.HTTP.Do(req)
	if err != nil {
		logger.Debug().Str("method", method).Str("url", target).Err(err).Msg("request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request complete")

	return normalizeResponse(resp, respBody)
}

func normalizeResponse(resp *http.Response, body []byte) (json.RawMessage, error) {
	switch {
	case resp.StatusCode >= 400:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(body),
			RequestID:  requestIDFromHeader(resp.Header),
		}
	case resp.StatusCode >= http.StatusOK && resp.StatusCode <= http.StatusAccepted:
		if len(bytes.TrimSpace(body)) == 0 {
			return emptyObject, nil
		}
		return json.RawMessage(body), nil
	default:
		return emptyObject, nil
	}
}

// statusText strips the numeric prefix net/http puts in Response.Status.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// do performs Send and decodes the response into result.
func (e *Executor) do(ctx context.Context, method, path string, params url.Values, result any) error {
	body, err := e.Send(ctx, method, path, params)
	if err != nil {
		return err
	}
	return decode(body, result)
}

func decode(body json.RawMessage, result any) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	// A no-content reply is normalized to {}; for a list that means no items.
	if bytes.Equal(body, emptyObject) {
		if rv := reflect.ValueOf(result); rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Slice {
			rv.Elem().Set(reflect.MakeSlice(rv.Elem().Type(), 0, 0))
			return nil
		}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}
