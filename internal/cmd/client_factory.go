package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/config"
)

type clientFactory struct {
	profile     string
	redirectURI string
	timeout     time.Duration
	timeoutSet  bool
	userAgent   string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		profile:    flags.Profile,
		timeout:    flags.Timeout,
		timeoutSet: flags.TimeoutSet,
		userAgent:  api.DefaultUserAgent(),
	}
}

// session couples a client with the profile it was built from, so a token
// obtained or refreshed during the command can be written back.
type session struct {
	client  *api.Client
	config  config.ClientConfig
	initial string
}

func (f *clientFactory) open() (*session, error) {
	cfg, err := config.Resolve(f.profile)
	if err != nil {
		return nil, err
	}

	var token *oauth2.Token
	if len(cfg.Token) > 0 {
		token, err = api.ParseToken(cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("stored token for profile %s: %w", cfg.Profile, err)
		}
	}

	if f.redirectURI != "" {
		cfg.RedirectURI = f.redirectURI
	}

	timeout := f.timeout
	if !f.timeoutSet && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	client, err := api.New(api.Config{
		BaseURL:        cfg.BaseURL,
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		RedirectURI:    cfg.RedirectURI,
		PermanentToken: cfg.PermanentToken,
		Token:          token,
		Timeout:        timeout,
		UserAgent:      f.userAgent,
	})
	if err != nil {
		return nil, err
	}

	s := &session{client: client, config: cfg}
	if token != nil {
		s.initial = token.AccessToken
	}
	return s, nil
}

// tokenChanged reports whether the client holds a token other than the one
// it was built with.
func (s *session) tokenChanged() bool {
	token := s.client.Token()
	return token != nil && token.AccessToken != s.initial
}

// persist stores the client's current OAuth2 token in the profile's secrets
// when it differs from the stored one.
func (s *session) persist() error {
	if !s.tokenChanged() {
		return nil
	}
	data, err := json.Marshal(s.client.Token())
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := config.UpdateSecrets(s.config.Profile, func(secrets *config.Secrets) {
		secrets.Token = data
	}); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	s.initial = s.client.Token().AccessToken
	return nil
}

// withClient runs fn with a client for the active profile and writes back a
// refreshed token afterwards, whether or not fn succeeded.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *api.Client) error) error {
	s, err := newClientFactory().open()
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	runErr := fn(ctx, s.client)
	if err := s.persist(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("profile", s.config.Profile).Msg("could not persist refreshed token")
	}
	return runErr
}
