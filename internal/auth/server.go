package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	successPage = template.Must(template.New("success").Parse(successTemplate))
	failurePage = template.Must(template.New("failure").Parse(failureTemplate))
)

// ErrNotLoopback is returned when the redirect URI cannot be served locally.
var ErrNotLoopback = errors.New("redirect URI must point to localhost, 127.0.0.1 or [::1] to capture the code locally")

// CallbackResult is what the provider sent back to the redirect URI.
type CallbackResult struct {
	Code string
	Err  error
}

// ProviderError is an error the authorization server reported on the redirect.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization denied: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization denied: %s", e.Code)
}

// CallbackServer captures the authorization code delivered to a loopback
// redirect URI. The state parameter doubles as a CSRF token.
type CallbackServer struct {
	redirect *url.URL
	state    string
	result   chan CallbackResult
	once     sync.Once

	listener net.Listener
	server   *http.Server
}

// NewCallbackServer prepares a server for redirectURI with a fresh state token.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if parsed.Scheme != "http" || !isLoopback(parsed.Hostname()) {
		return nil, ErrNotLoopback
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	return &CallbackServer{
		redirect: parsed,
		state:    hex.EncodeToString(tokenBytes),
		result:   make(chan CallbackResult, 1),
	}, nil
}

// State returns the value to send as the OAuth2 state parameter.
func (s *CallbackServer) State() string {
	return s.state
}

// Listen binds the redirect URI's host and port. A port of 0 picks a free one;
// Addr then reports the bound address.
func (s *CallbackServer) Listen() error {
	host := s.redirect.Hostname()
	port := s.redirect.Port()
	if port == "" {
		port = "80"
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle(s.callbackPath(), s.Handler())
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		_ = s.server.Serve(listener)
	}()
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Wait blocks until the callback arrives or ctx is done, then shuts the
// server down.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	defer s.Close()

	select {
	case result := <-s.result:
		return result.Code, result.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the server.
func (s *CallbackServer) Close() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		_ = s.server.Close() // Force close if graceful shutdown fails
	}
}

func (s *CallbackServer) callbackPath() string {
	if s.redirect.Path == "" {
		return "/"
	}
	return s.redirect.Path
}

// Handler serves the redirect. Requests with a wrong state are rejected and
// do not complete the flow.
func (s *CallbackServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(s.state)) != 1 {
			renderFailure(w, http.StatusForbidden, "The state parameter did not match. Start the login again.", "")
			return
		}

		if code := q.Get("error"); code != "" {
			providerErr := &ProviderError{Code: code, Description: q.Get("error_description")}
			s.deliver(CallbackResult{Err: providerErr})
			renderFailure(w, http.StatusOK, "The authorization server refused the request.", code)
			return
		}

		code := q.Get("code")
		if code == "" {
			renderFailure(w, http.StatusBadRequest, "No authorization code was received.", "")
			return
		}

		s.deliver(CallbackResult{Code: code})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = successPage.Execute(w, nil)
	})
}

// deliver records the first result only.
func (s *CallbackServer) deliver(result CallbackResult) {
	s.once.Do(func() {
		s.result <- result
	})
}

func renderFailure(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = failurePage.Execute(w, map[string]string{"Message": message, "Code": code})
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// PromptBrowser prints authURL and tries to open it in the default browser.
func PromptBrowser(out io.Writer, authURL string) {
	_, _ = fmt.Fprintf(out, "Open this URL in your browser to authorize:\n  %s\n", authURL)
	if err := openBrowser(authURL); err != nil {
		_, _ = fmt.Fprintf(out, "Could not open browser automatically: %v\n", err)
	}
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	if shouldSkipAutoBrowserOpen() {
		return nil
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}

func shouldSkipAutoBrowserOpen() bool {
	// Always skip browser launch when running under `go test`.
	if flag.Lookup("test.v") != nil {
		return true
	}

	noBrowser := strings.TrimSpace(strings.ToLower(os.Getenv("BYNDER_NO_BROWSER")))
	return noBrowser == "1" || noBrowser == "true" || noBrowser == "yes"
}
