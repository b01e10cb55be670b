// Test utilities for the bynder CLI commands.
//
// Commands run against an httptest server through Execute. setupTestEnv points
// BYNDER_BASE_URL at the server, authenticates with a permanent token, writes
// the config file to a temp dir and swaps in an in-memory keyring:
//
//	handler := newRouteHandler().
//	    On("GET", "/v4/smartfilters/", jsonResponse(200, `[]`))
//	setupTestEnv(t, handler)
//
//	output := captureStdout(t, func() {
//	    if err := Execute(context.Background(), []string{"smartfilters", "list"}); err != nil {
//	        t.Fatalf("command failed: %v", err)
//	    }
//	})
//
// setupOAuthTestEnv does the same without a permanent token, for commands
// that exercise the OAuth2 flow and the stored token.
package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"

	"github.com/bynder/bynder-cli/internal/config"
)

// captureStdout executes a function and captures its stdout output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// captureStderr executes a function and captures its stderr output.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	_ = w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// withStdin replaces os.Stdin with a pipe holding input for the duration of fn.
func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	_ = w.Close()

	old := os.Stdin
	os.Stdin = r
	defer func() {
		os.Stdin = old
		_ = r.Close()
	}()
	fn()
}

// useTestKeyring swaps in an in-memory keyring shared by every open during
// the test.
func useTestKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

// testEnv gives access to the mock server and the isolated config file.
type testEnv struct {
	server     *httptest.Server
	configPath string
}

// setupTestEnv creates a mock server and points the CLI at it with a
// permanent token. All BYNDER_* variables are isolated for the test.
func setupTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	env := setupOAuthTestEnv(t, handler)
	t.Setenv("BYNDER_PERMANENT_TOKEN", "test-token")
	return env
}

// setupOAuthTestEnv is setupTestEnv without a permanent token, so the
// keyring and OAuth2 settings are used.
func setupOAuthTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	env := &testEnv{
		server:     server,
		configPath: filepath.Join(t.TempDir(), "config.toml"),
	}

	t.Setenv("BYNDER_CONFIG", env.configPath)
	t.Setenv("BYNDER_BASE_URL", server.URL)
	t.Setenv("BYNDER_PERMANENT_TOKEN", "")
	t.Setenv("BYNDER_CLIENT_ID", "client-id")
	t.Setenv("BYNDER_CLIENT_SECRET", "client-secret")
	t.Setenv("BYNDER_REDIRECT_URI", "")
	t.Setenv("BYNDER_PROFILE", "")
	t.Setenv("BYNDER_OUTPUT", "text")
	t.Setenv("BYNDER_NO_BROWSER", "1")
	t.Setenv("BYNDER_CACHE_DIR", filepath.Join(filepath.Dir(env.configPath), "cache"))
	t.Setenv("BYNDER_NO_CACHE", "")
	useTestKeyring(t)

	return env
}

// jsonResponse creates an http.HandlerFunc that returns a JSON response with the given status and body.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// routeHandler is a test HTTP handler that routes requests based on method and path.
// Routes are matched by exact "METHOD PATH" combination. If no route matches,
// it returns 404 Not Found.
type routeHandler struct {
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newRouteHandler() *routeHandler {
	return &routeHandler{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
}

// On registers a handler for the given HTTP method and path.
// Returns the routeHandler to allow method chaining.
func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

// Hits reports how often a route was called.
func (rh *routeHandler) Hits(method, path string) int {
	return rh.hits[method+" "+path]
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	rh.hits[key]++
	if handler, ok := rh.routes[key]; ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// decodeItems decodes {"items": [...]} JSON output.
func decodeItems(t *testing.T, output string) []map[string]any {
	t.Helper()
	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("failed to decode items: %v\noutput: %s", err, output)
	}
	return payload.Items
}

// decodeObject decodes a JSON object from output.
func decodeObject(t *testing.T, output string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("failed to decode object: %v\noutput: %s", err, output)
	}
	return payload
}
