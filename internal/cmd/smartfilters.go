package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/outfmt"
)

func newSmartFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "smartfilters",
		Aliases: []string{"smartfilter", "sf"},
		Short:   "Inspect smart filters",
	}
	cmd.AddCommand(newSmartFiltersListCmd())
	return cmd
}

func newSmartFiltersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List smart filters",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				items, err := client.SmartFilters().List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list smart filters: %w", err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, items)
				}

				f := formatter(cmd)
				if len(items) == 0 {
					f.Empty("No smart filters found")
					return nil
				}
				f.StartTable([]string{"ID", "LABEL", "METAPROPERTY"})
				for _, item := range items {
					f.Row(outfmt.Cell(item["id"]), outfmt.Cell(item["labels"]), outfmt.Cell(item["metapropertyId"]))
				}
				return f.EndTable()
			})
		}),
	}
	return cmd
}
