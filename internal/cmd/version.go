package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

// checkForUpdate is replaced in tests.
var checkForUpdate = func(cmd *cobra.Command) *update.CheckResult {
	return update.NewChecker(api.DefaultUserAgent()).Check(cmd.Context(), version)
}

func init() {
	api.Version = version
}

func newVersionCmd() *cobra.Command {
	var noCheck bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if !noCheck {
				result = checkForUpdate(cmd)
			}

			if isJSON(cmd) {
				payload := map[string]any{"version": version}
				if result != nil {
					payload["latest_version"] = result.LatestVersion
					payload["update_available"] = result.UpdateAvailable
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bynder-cli version %s\n", version)
			if result != nil && result.UpdateAvailable {
				errOut := cmd.ErrOrStderr()
				_, _ = fmt.Fprintf(errOut, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				_, _ = fmt.Fprintf(errOut, "Download: %s\n", result.UpdateURL)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noCheck, "no-check", false, "Skip the update check")
	return cmd
}
