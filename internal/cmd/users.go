package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/iocontext"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "User operations",
	}
	cmd.AddCommand(newUsersLoginCmd())
	return cmd
}

func newUsersLoginCmd() *cobra.Command {
	var (
		username   string
		consumerID string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log a portal user in and print the session details",
		Long: strings.TrimSpace(`
Log a portal user in. The password is read from the terminal without echo,
or from stdin when piped.
`),
		Example: strings.TrimSpace(`
  bynder users login --username jane@example.com --consumer-id 1A2B...
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			password, err := iocontext.GetIO(cmd.Context()).ReadSecret("Password: ")
			if err != nil {
				return err
			}
			params := api.LoginParams{
				Username:   strings.TrimSpace(username),
				Password:   password,
				ConsumerID: strings.TrimSpace(consumerID),
			}

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Users().Login(ctx, params)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, result)
				}
				return formatter(cmd).Record(result)
			})
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (email)")
	cmd.Flags().StringVar(&consumerID, "consumer-id", "", "OAuth consumer ID")

	return cmd
}
