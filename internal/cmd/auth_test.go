package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bynder/bynder-cli/internal/config"
)

const tokenPath = "/v6/authentication/oauth2/token"

// tokenEndpoint answers token requests with a fresh access token and records
// the submitted form.
func tokenEndpoint(t *testing.T, access string, got *url.Values) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got != nil {
			*got = r.PostForm
		}
		jsonResponse(http.StatusOK, fmt.Sprintf(`{
			"access_token": %q,
			"token_type": "bearer",
			"refresh_token": "refresh-2",
			"expires_in": 3600
		}`, access))(w, r)
	}
}

// storeToken saves an OAuth2 token for the default profile.
func storeToken(t *testing.T, access, refresh string, expiry time.Time) {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"refresh_token": refresh,
		"expiry":        expiry.Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.NoError(t, config.SaveSecrets("default", config.Secrets{Token: data}))
}

// storedAccessToken returns the access token saved for the default profile.
func storedAccessToken(t *testing.T) string {
	t.Helper()
	secrets, err := config.LoadSecrets("default")
	require.NoError(t, err)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(secrets.Token, &token))
	return token.AccessToken
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestAuthURLCommand(t *testing.T) {
	env := setupOAuthTestEnv(t, newRouteHandler())
	t.Setenv("BYNDER_REDIRECT_URI", "http://localhost:8484/callback")

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "url", "--state", "abc123", "--scopes", "offline,asset:read"})
		require.NoError(t, err)
	})

	authURL, err := url.Parse(strings.TrimSpace(output))
	require.NoError(t, err)
	assert.Equal(t, env.server.URL+"/v6/authentication/oauth2/auth", authURL.Scheme+"://"+authURL.Host+authURL.Path)

	q := authURL.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "abc123", q.Get("state"))
	assert.Equal(t, "offline asset:read", q.Get("scope"))
	assert.Equal(t, "http://localhost:8484/callback", q.Get("redirect_uri"))
}

func TestAuthURLCommand_JSONRandomState(t *testing.T) {
	setupOAuthTestEnv(t, newRouteHandler())

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "url", "-o", "json"})
		require.NoError(t, err)
	})

	payload := decodeObject(t, output)
	state, _ := payload["state"].(string)
	assert.Len(t, state, 32)
	assert.Contains(t, payload["url"], "state="+state)
}

func TestAuthExchangeCommand(t *testing.T) {
	var form url.Values
	handler := newRouteHandler().
		On("POST", tokenPath, tokenEndpoint(t, "access-1", &form))
	setupOAuthTestEnv(t, handler)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "exchange", "code-1"})
		require.NoError(t, err)
	})

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "code-1", form.Get("code"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))

	assert.Contains(t, output, "Authorization complete, token stored.")
	assert.Contains(t, output, "Profile: default")
	assert.Equal(t, "access-1", storedAccessToken(t))
}

func TestAuthExchangeCommand_Rejected(t *testing.T) {
	handler := newRouteHandler().
		On("POST", tokenPath, jsonResponse(http.StatusBadRequest, `{"error": "invalid_grant", "error_description": "code expired"}`))
	setupOAuthTestEnv(t, handler)

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "exchange", "stale-code"})
	})

	require.Error(t, err)
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Contains(t, stderr, "Authorization failed: invalid_grant")

	_, loadErr := config.LoadSecrets("default")
	assert.True(t, errors.Is(loadErr, config.ErrNoSecrets), "nothing should be stored, got %v", loadErr)
}

func TestAuthLoginCommand(t *testing.T) {
	var form url.Values
	handler := newRouteHandler().
		On("POST", tokenPath, tokenEndpoint(t, "access-login", &form))
	setupOAuthTestEnv(t, handler)

	redirect := fmt.Sprintf("http://127.0.0.1:%d/callback", freePort(t))
	t.Setenv("BYNDER_REDIRECT_URI", redirect)

	original := promptBrowser
	t.Cleanup(func() { promptBrowser = original })
	promptBrowser = func(out io.Writer, authURL string) {
		parsed, err := url.Parse(authURL)
		if err != nil {
			t.Errorf("parse auth URL: %v", err)
			return
		}
		q := parsed.Query()
		if q.Get("redirect_uri") != redirect {
			t.Errorf("redirect_uri = %q, want %q", q.Get("redirect_uri"), redirect)
		}
		callback := q.Get("redirect_uri") + "?" + url.Values{"code": {"login-code"}, "state": {q.Get("state")}}.Encode()
		resp, err := http.Get(callback)
		if err != nil {
			t.Errorf("callback: %v", err)
			return
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("callback status = %d", resp.StatusCode)
		}
	}

	var output string
	stderr := captureStderr(t, func() {
		output = captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "login", "--wait", "10s"})
			require.NoError(t, err)
		})
	})

	assert.Contains(t, stderr, "Waiting for authorization...")
	assert.Equal(t, "login-code", form.Get("code"))
	assert.Equal(t, redirect, form.Get("redirect_uri"))
	assert.Contains(t, output, "Authorization complete")
	assert.Equal(t, "access-login", storedAccessToken(t))
}

func TestAuthLoginCommand_RequiresRedirectURI(t *testing.T) {
	setupOAuthTestEnv(t, newRouteHandler())

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login"})
	})

	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, stderr, "redirect_uri is required")
}

func TestAuthTokenSetPermanentCommand(t *testing.T) {
	var gotAuth string
	handler := newRouteHandler().
		On("GET", "/v4/smartfilters/", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(http.StatusOK, `[]`)(w, r)
		})
	setupOAuthTestEnv(t, handler)

	var output string
	withStdin(t, "perm-123\n", func() {
		output = captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "token", "set-permanent"})
			require.NoError(t, err)
		})
	})
	assert.Equal(t, "Stored permanent token for profile default", strings.TrimSpace(output))

	secrets, err := config.LoadSecrets("default")
	require.NoError(t, err)
	assert.Equal(t, "perm-123", secrets.PermanentToken)

	_ = captureStderr(t, func() {
		_ = captureStdout(t, func() {
			err := Execute(context.Background(), []string{"smartfilters", "list"})
			require.NoError(t, err)
		})
	})
	assert.Equal(t, "Bearer perm-123", gotAuth)
}

func TestAuthTokenSetPermanentCommand_Empty(t *testing.T) {
	setupOAuthTestEnv(t, newRouteHandler())

	var err error
	withStdin(t, "\n", func() {
		_ = captureStderr(t, func() {
			err = Execute(context.Background(), []string{"auth", "token", "set-permanent"})
		})
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permanent token is required")
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestAuthSetClientSecretCommand(t *testing.T) {
	setupOAuthTestEnv(t, newRouteHandler())
	t.Setenv("BYNDER_PROFILE", "staging")

	withStdin(t, "s3cret\n", func() {
		output := captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "set-client-secret"})
			require.NoError(t, err)
		})
		assert.Contains(t, output, "Stored client secret for profile staging")
	})

	secrets, err := config.LoadSecrets("staging")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secrets.ClientSecret)
}

func TestAuthStatusCommand(t *testing.T) {
	t.Run("permanent token", func(t *testing.T) {
		setupTestEnv(t, newRouteHandler())

		output := captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "status", "-o", "json"})
			require.NoError(t, err)
		})

		status := decodeObject(t, output)
		assert.Equal(t, "permanent_token", status["credential"])
		assert.Equal(t, "default", status["profile"])
		assert.Equal(t, "client-id", status["client_id"])
	})

	t.Run("expired oauth2 token", func(t *testing.T) {
		setupOAuthTestEnv(t, newRouteHandler())
		storeToken(t, "old", "refresh-1", time.Now().Add(-time.Hour))

		output := captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "status", "-o", "json"})
			require.NoError(t, err)
		})

		status := decodeObject(t, output)
		assert.Equal(t, "oauth2", status["credential"])
		assert.Equal(t, true, status["refreshable"])
		assert.Equal(t, true, status["expired"])
	})

	t.Run("no credential", func(t *testing.T) {
		setupOAuthTestEnv(t, newRouteHandler())

		output := captureStdout(t, func() {
			err := Execute(context.Background(), []string{"auth", "status"})
			require.NoError(t, err)
		})
		assert.Contains(t, output, "credential")
		assert.Contains(t, output, "none")
	})
}

func TestAuthLogoutCommand(t *testing.T) {
	var form url.Values
	handler := newRouteHandler().
		On("POST", "/v6/authentication/oauth2/revoke", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			form = r.PostForm
			w.WriteHeader(http.StatusOK)
		})
	setupOAuthTestEnv(t, handler)
	storeToken(t, "access-1", "refresh-1", time.Now().Add(time.Hour))

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "logout"})
		require.NoError(t, err)
	})

	assert.Equal(t, "refresh-1", form.Get("token"))
	assert.Equal(t, "refresh_token", form.Get("token_type_hint"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "Logged out of profile default", strings.TrimSpace(output))

	_, err := config.LoadSecrets("default")
	assert.True(t, errors.Is(err, config.ErrNoSecrets), "token should be removed, got %v", err)
}

func TestAuthLogoutCommand_NoRevokeKeepsOtherSecrets(t *testing.T) {
	handler := newRouteHandler()
	setupOAuthTestEnv(t, handler)

	data, err := json.Marshal(map[string]any{"access_token": "access-1"})
	require.NoError(t, err)
	require.NoError(t, config.SaveSecrets("default", config.Secrets{PermanentToken: "perm", Token: data}))

	_ = captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "logout", "--no-revoke"})
		require.NoError(t, err)
	})

	assert.Equal(t, 0, handler.Hits("POST", "/v6/authentication/oauth2/revoke"))
	secrets, err := config.LoadSecrets("default")
	require.NoError(t, err)
	assert.Equal(t, "perm", secrets.PermanentToken)
	assert.Empty(t, secrets.Token)
}

func TestExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	var form url.Values
	var gotAuth string
	handler := newRouteHandler().
		On("POST", tokenPath, tokenEndpoint(t, "access-2", &form)).
		On("GET", "/v4/smartfilters/", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(http.StatusOK, `[]`)(w, r)
		})
	setupOAuthTestEnv(t, handler)
	storeToken(t, "access-1", "refresh-1", time.Now().Add(-time.Hour))

	_ = captureStderr(t, func() {
		_ = captureStdout(t, func() {
			err := Execute(context.Background(), []string{"smartfilters", "list"})
			require.NoError(t, err)
		})
	})

	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "refresh-1", form.Get("refresh_token"))
	assert.Equal(t, "Bearer access-2", gotAuth)
	assert.Equal(t, "access-2", storedAccessToken(t))
}

func TestExpiredTokenRefreshFailure(t *testing.T) {
	handler := newRouteHandler().
		On("POST", tokenPath, jsonResponse(http.StatusBadRequest, `{"error": "invalid_grant"}`))
	setupOAuthTestEnv(t, handler)
	storeToken(t, "access-1", "refresh-1", time.Now().Add(-time.Hour))

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"smartfilters", "list"})
	})

	require.Error(t, err)
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Equal(t, 0, handler.Hits("GET", "/v4/smartfilters/"))
	assert.Equal(t, "access-1", storedAccessToken(t))
}
