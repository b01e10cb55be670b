package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/cache"
	"github.com/bynder/bynder-cli/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI configuration",
		Long: strings.TrimSpace(`
Manage non-secret settings stored in the config file.

Settings: ` + strings.Join(config.Keys, ", ") + `.
Secrets are managed with 'bynder auth'.
`),
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigProfilesCmd())
	cmd.AddCommand(newConfigClearCacheCmd())

	return cmd
}

func loadConfigFile() (string, config.File, error) {
	path, err := config.Path()
	if err != nil {
		return "", config.File{}, err
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return "", config.File{}, err
	}
	return path, f, nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the settings of the active profile",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			_, f, err := loadConfigFile()
			if err != nil {
				return err
			}
			profile := config.ActiveProfile(flags.Profile, f)
			settings := f.Profile(profile)

			secrets, err := config.LoadSecrets(profile)
			if err != nil && !errors.Is(err, config.ErrNoSecrets) {
				return err
			}

			record := map[string]any{
				"profile":         profile,
				"base_url":        settings.BaseURL,
				"client_id":       settings.ClientID,
				"redirect_uri":    settings.RedirectURI,
				"scopes":          strings.Join(settings.Scopes, ","),
				"timeout":         settings.Timeout,
				"client_secret":   secrets.ClientSecret != "",
				"permanent_token": secrets.PermanentToken != "",
				"oauth2_token":    len(secrets.Token) > 0,
			}
			if isJSON(cmd) {
				return printJSON(cmd, record)
			}
			return formatter(cmd).Record(record)
		}),
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting of the active profile",
		Example: strings.TrimSpace(`
  bynder config set base_url https://acme.bynder.com
  bynder config set redirect_uri http://localhost:8484/callback
  bynder config set scopes offline,asset:read,meta.assetbank:read
  bynder --profile staging config set timeout 1m
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path, f, err := loadConfigFile()
			if err != nil {
				return err
			}
			profile := config.ActiveProfile(flags.Profile, f)
			key := strings.ToLower(strings.TrimSpace(args[0]))

			if err := f.Set(profile, key, args[1]); err != nil {
				return err
			}
			if err := config.SaveFile(path, f); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s for profile %s\n", key, profile)
			return nil
		}),
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
}

func newConfigClearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove cached listings used for name lookups",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("failed to locate cache directory: %w", err)
			}
			removed, err := cache.ClearAll(dir)
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir, "removed": removed})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached listing(s) from %s\n", removed, dir)
			return nil
		}),
	}
}

func newConfigProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage profiles",
	}

	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesUseCmd())

	return cmd
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			_, f, err := loadConfigFile()
			if err != nil {
				return err
			}
			current := config.ActiveProfile(flags.Profile, f)
			profiles := f.ProfileNames()

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"current":  current,
					"profiles": profiles,
				})
			}

			out := formatter(cmd)
			if len(profiles) == 0 {
				out.Empty("No profiles configured. Run 'bynder config set base_url <url>' to add one.")
				return nil
			}
			out.StartTable([]string{"CURRENT", "PROFILE", "BASE_URL"})
			for _, profile := range profiles {
				marker := ""
				if profile == current {
					marker = "*"
				}
				baseURL := f.Profile(profile).BaseURL
				if baseURL == "" {
					baseURL = "-"
				}
				out.Row(marker, profile, baseURL)
			}
			return out.EndTable()
		}),
	}
}

func newProfilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the default profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path, f, err := loadConfigFile()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if _, ok := f.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found (known: %s)", name, strings.Join(f.ProfileNames(), ", "))
			}
			f.DefaultProfile = name
			if err := config.SaveFile(path, f); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current profile: %s (%s)\n", name, f.Profile(name).BaseURL)
			return nil
		}),
	}
}
