package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/auth"
	"github.com/bynder/bynder-cli/internal/config"
	"github.com/bynder/bynder-cli/internal/iocontext"
	"github.com/bynder/bynder-cli/internal/validation"
)

// promptBrowser is replaced in tests to drive the callback.
var promptBrowser = auth.PromptBrowser

const defaultLoginWait = 5 * time.Minute

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage authentication credentials",
		Long:    "Obtain, inspect and revoke Bynder credentials. Secrets are stored in the OS keychain per profile.",
	}

	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthExchangeCmd())
	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthClientSecretCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func scopesOrDefault(flagValue string, cfg config.ClientConfig) []string {
	if scopes := validation.SplitList(flagValue); len(scopes) > 0 {
		return scopes
	}
	return cfg.Scopes
}

func newAuthURLCmd() *cobra.Command {
	var (
		state  string
		scopes string
	)

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the OAuth2 authorization URL",
		Example: strings.TrimSpace(`
  # Authorization URL with the configured scopes
  bynder auth url

  # Explicit state and scopes
  bynder auth url --state abc123 --scope offline,asset:read
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := newClientFactory().open()
			if err != nil {
				return err
			}
			if state == "" {
				if state, err = newState(); err != nil {
					return err
				}
			}

			authURL := s.client.AuthorizationURL(state, scopesOrDefault(scopes, s.config)...)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"url": authURL, "state": state})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), authURL)
			return nil
		}),
	}

	cmd.Flags().StringVar(&state, "state", "", "State value echoed back by the provider (random when empty)")
	cmd.Flags().StringVar(&scopes, "scope", "", "Comma separated scopes (default: configured scopes)")
	flagAlias(cmd.Flags(), "scope", "scopes")

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		scopes      string
		redirectURI string
		wait        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and store the OAuth2 token",
		Long: strings.TrimSpace(`
Run the OAuth2 authorization code flow.

A local server listens on the redirect URI, which must point to localhost,
127.0.0.1 or [::1] and be registered for your OAuth app. The code delivered
to it is exchanged for a token that is stored in the OS keychain.
`),
		Example: strings.TrimSpace(`
  # Use the configured redirect URI and scopes
  bynder auth login

  # Override both
  bynder auth login --redirect-uri http://localhost:8484/callback --scope offline,asset:read
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			factory := newClientFactory()
			factory.redirectURI = strings.TrimSpace(redirectURI)
			s, err := factory.open()
			if err != nil {
				return err
			}
			if s.config.RedirectURI == "" {
				return fmt.Errorf("redirect_uri is required: run 'bynder config set redirect_uri http://localhost:8484/callback' or pass --redirect-uri")
			}

			server, err := auth.NewCallbackServer(s.config.RedirectURI)
			if err != nil {
				return err
			}
			if err := server.Listen(); err != nil {
				return err
			}
			defer server.Close()

			ioStreams := iocontext.GetIO(cmd.Context())
			promptBrowser(ioStreams.ErrOut, s.client.AuthorizationURL(server.State(), scopesOrDefault(scopes, s.config)...))
			_, _ = fmt.Fprintln(ioStreams.ErrOut, "Waiting for authorization...")

			waitCtx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			code, err := server.Wait(waitCtx)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("timed out after %s waiting for authorization", wait)
				}
				return err
			}

			return exchangeAndStore(cmd, s, code)
		}),
	}

	cmd.Flags().StringVar(&scopes, "scope", "", "Comma separated scopes (default: configured scopes)")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Loopback redirect URI (default: configured redirect_uri)")
	cmd.Flags().DurationVar(&wait, "wait", defaultLoginWait, "How long to wait for the browser callback")
	flagAlias(cmd.Flags(), "scope", "scopes")

	return cmd
}

func newAuthExchangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange <code>",
		Short: "Exchange an authorization code for a token and store it",
		Example: strings.TrimSpace(`
  # After visiting the URL from 'bynder auth url'
  bynder auth exchange 7b1e...
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			s, err := newClientFactory().open()
			if err != nil {
				return err
			}
			return exchangeAndStore(cmd, s, args[0])
		}),
	}
	return cmd
}

func exchangeAndStore(cmd *cobra.Command, s *session, code string) error {
	token, err := s.client.ExchangeCode(cmdContext(cmd), strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return err
	}

	if isJSON(cmd) {
		return printJSON(cmd, tokenSummary(s.config.Profile, token.Expiry, token.RefreshToken != ""))
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Authorization complete, token stored.")
	_, _ = fmt.Fprintf(out, "  Profile: %s\n", s.config.Profile)
	if !token.Expiry.IsZero() {
		_, _ = fmt.Fprintf(out, "  Expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	return nil
}

func tokenSummary(profile string, expiry time.Time, refreshable bool) map[string]any {
	summary := map[string]any{
		"profile":     profile,
		"refreshable": refreshable,
	}
	if !expiry.IsZero() {
		summary["expires_at"] = expiry.Format(time.RFC3339)
	}
	return summary
}

// activeProfile resolves the profile name without requiring a complete config.
func activeProfile() (string, error) {
	path, err := config.Path()
	if err != nil {
		return "", err
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return "", err
	}
	return config.ActiveProfile(flags.Profile, f), nil
}

func newAuthTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the permanent token",
	}
	cmd.AddCommand(newAuthTokenSetPermanentCmd())
	return cmd
}

func newAuthTokenSetPermanentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-permanent",
		Short: "Store a permanent token for the active profile",
		Long: strings.TrimSpace(`
Store a permanent token. It is read from the terminal without echo, or from
stdin when piped. A permanent token is used in preference to OAuth2 tokens.
`),
		Example: strings.TrimSpace(`
  # Prompt for the token
  bynder auth token set-permanent

  # From a secret manager
  op read op://vault/bynder/token | bynder auth token set-permanent
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return storeSecret(cmd, "Permanent token: ", "permanent token", func(s *config.Secrets, value string) {
				s.PermanentToken = value
			})
		}),
	}
	return cmd
}

func newAuthClientSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-client-secret",
		Short: "Store the OAuth app client secret for the active profile",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return storeSecret(cmd, "Client secret: ", "client secret", func(s *config.Secrets, value string) {
				s.ClientSecret = value
			})
		}),
	}
	return cmd
}

func storeSecret(cmd *cobra.Command, prompt, what string, set func(*config.Secrets, string)) error {
	profile, err := activeProfile()
	if err != nil {
		return err
	}

	value, err := iocontext.GetIO(cmd.Context()).ReadSecret(prompt)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s is required", what)
	}

	if err := config.UpdateSecrets(profile, func(s *config.Secrets) { set(s, value) }); err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s for profile %s\n", what, profile)
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which credential the active profile uses",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := newClientFactory().open()
			if err != nil {
				return err
			}
			status := credentialStatus(s.config, s.client)

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}
			return formatter(cmd).Record(status)
		}),
	}
	return cmd
}

func credentialStatus(cfg config.ClientConfig, client *api.Client) map[string]any {
	status := map[string]any{
		"profile":  cfg.Profile,
		"base_url": cfg.BaseURL,
	}

	token := client.Token()
	switch {
	case cfg.PermanentToken != "":
		status["credential"] = "permanent_token"
	case token != nil:
		status["credential"] = "oauth2"
		status["refreshable"] = token.RefreshToken != ""
		if !token.Expiry.IsZero() {
			status["expires_at"] = token.Expiry.Format(time.RFC3339)
			status["expired"] = !token.Valid()
		}
	default:
		status["credential"] = "none"
	}
	if cfg.ClientID != "" {
		status["client_id"] = cfg.ClientID
	}
	return status
}

func newAuthLogoutCmd() *cobra.Command {
	var (
		noRevoke bool
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and remove the stored OAuth2 token",
		Example: strings.TrimSpace(`
  # Revoke the token and forget it
  bynder auth logout

  # Also forget the permanent token and client secret
  bynder auth logout --all
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := newClientFactory().open()
			if err != nil {
				return err
			}

			if !noRevoke && s.client.Token() != nil {
				if err := s.client.RevokeToken(cmdContext(cmd)); err != nil {
					return fmt.Errorf("failed to revoke token (use --no-revoke to only remove it locally): %w", err)
				}
			}

			if all {
				err = config.DeleteSecrets(s.config.Profile)
			} else {
				err = config.UpdateSecrets(s.config.Profile, func(secrets *config.Secrets) {
					secrets.Token = nil
				})
			}
			if err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged out of profile %s\n", s.config.Profile)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noRevoke, "no-revoke", false, "Skip revoking the token at the provider")
	cmd.Flags().BoolVar(&all, "all", false, "Also remove the permanent token and client secret")

	return cmd
}
