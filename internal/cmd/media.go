package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/cli"
	"github.com/bynder/bynder-cli/internal/dryrun"
	"github.com/bynder/bynder-cli/internal/iocontext"
	"github.com/bynder/bynder-cli/internal/outfmt"
	"github.com/bynder/bynder-cli/internal/validation"
)

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "media",
		Aliases: []string{"m", "assets"},
		Short:   "Browse and manage media items",
	}

	cmd.AddCommand(newMediaListCmd())
	cmd.AddCommand(newMediaGetCmd())
	cmd.AddCommand(newMediaTotalCmd())
	cmd.AddCommand(newMediaAllCmd())
	cmd.AddCommand(newMediaEditCmd())
	cmd.AddCommand(newMediaDeleteCmd())

	return cmd
}

// mediaFilterFlags are the listing filters shared by list, total and all.
type mediaFilterFlags struct {
	keyword         string
	mediaType       string
	brandID         string
	subBrandID      string
	categoryID      string
	collectionID    string
	orderBy         string
	dateCreated     string
	dateModified    string
	public          bool
	propertyOptions string
	ids             string
}

func (f *mediaFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.keyword, "keyword", "", "Search keyword")
	cmd.Flags().StringVar(&f.mediaType, "type", "", "Media type: image|document|audio|video|3d")
	cmd.Flags().StringVar(&f.brandID, "brand", "", "Brand ID")
	cmd.Flags().StringVar(&f.subBrandID, "sub-brand", "", "Sub-brand ID")
	cmd.Flags().StringVar(&f.categoryID, "category", "", "Category ID")
	cmd.Flags().StringVar(&f.collectionID, "collection", "", "Collection ID")
	cmd.Flags().StringVar(&f.orderBy, "order-by", "", "Sort order, e.g. \"dateModified desc\"")
	cmd.Flags().StringVar(&f.dateCreated, "date-created", "", "Only media created since: ISO 8601 date, 7d, 2w ago, yesterday, monday")
	cmd.Flags().StringVar(&f.dateModified, "date-modified", "", "Only media modified since (same forms as --date-created)")
	cmd.Flags().BoolVar(&f.public, "public", false, "Filter on public (true) or non-public (false) media")
	cmd.Flags().StringVar(&f.propertyOptions, "property-option", "", "Comma separated metaproperty option IDs")
	cmd.Flags().StringVar(&f.ids, "ids", "", "Comma separated media IDs")
	flagAlias(cmd.Flags(), "property-option", "property-options")
}

// clock is replaced in tests to pin relative dates.
var clock = time.Now

func (f *mediaFilterFlags) params(cmd *cobra.Command) (api.MediaListParams, error) {
	dateCreated, err := parseDateFlag("date-created", f.dateCreated)
	if err != nil {
		return api.MediaListParams{}, err
	}
	dateModified, err := parseDateFlag("date-modified", f.dateModified)
	if err != nil {
		return api.MediaListParams{}, err
	}

	return api.MediaListParams{
		Keyword:           f.keyword,
		Type:              f.mediaType,
		BrandID:           f.brandID,
		SubBrandID:        f.subBrandID,
		CategoryID:        f.categoryID,
		CollectionID:      f.collectionID,
		OrderBy:           f.orderBy,
		DateCreated:       dateCreated,
		DateModified:      dateModified,
		IsPublic:          boolPtrIfChanged(cmd, "public", f.public),
		PropertyOptionIDs: validation.SplitList(f.propertyOptions),
		IDs:               validation.SplitList(f.ids),
	}, nil
}

func parseDateFlag(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	parsed, err := cli.ParseDateFilter(value, clock())
	if err != nil {
		return "", fmt.Errorf("--%s: %w", name, err)
	}
	return parsed, nil
}

func printMediaTable(cmd *cobra.Command, items []api.Media) error {
	f := formatter(cmd)
	if len(items) == 0 {
		f.Empty("No media found")
		return nil
	}
	f.StartTable([]string{"ID", "NAME", "TYPE", "MODIFIED"})
	for _, item := range items {
		f.Row(item.ID(), outfmt.Cell(item["name"]), outfmt.Cell(item["type"]), outfmt.Cell(item["dateModified"]))
	}
	return f.EndTable()
}

func newMediaListCmd() *cobra.Command {
	var (
		filters mediaFilterFlags
		limit   int
		page    int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of media",
		Example: strings.TrimSpace(`
  # First 20 images
  bynder media list --type image --limit 20

  # Media tagged with two metaproperty options
  bynder media list --property-option 6C47...,A1B2... -o json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if limit < 0 || page < 0 {
				return fmt.Errorf("--limit and --page must be >= 0")
			}
			params, err := filters.params(cmd)
			if err != nil {
				return err
			}
			params.Limit = limit
			params.Page = page

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				items, err := client.Media().List(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to list media: %w", err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, items)
				}
				return printMediaTable(cmd, items)
			})
		}),
	}

	filters.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (server default when 0)")
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")

	return cmd
}

func newMediaGetCmd() *cobra.Command {
	var versions bool

	cmd := &cobra.Command{
		Use:     "get <id-or-url>",
		Aliases: []string{"g", "info"},
		Short:   "Get media details",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := resourceArg(args[0], "media")
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				item, err := client.Media().Get(ctx, api.MediaInfoParams{ID: id, Versions: versions})
				if err != nil {
					return fmt.Errorf("failed to get media %s: %w", id, err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, item)
				}
				return formatter(cmd).Record(item)
			})
		}),
	}

	cmd.Flags().BoolVar(&versions, "versions", false, "Include media versions")
	return cmd
}

func newMediaTotalCmd() *cobra.Command {
	var filters mediaFilterFlags

	cmd := &cobra.Command{
		Use:     "total",
		Aliases: []string{"count"},
		Short:   "Count media matching the filters",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			params, err := filters.params(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				total, err := client.Media().Total(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to count media: %w", err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"total": total})
				}
				_, _ = fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, total)
				return nil
			})
		}),
	}

	filters.register(cmd)
	return cmd
}

func newMediaAllCmd() *cobra.Command {
	var (
		filters  mediaFilterFlags
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "List every media item, following pagination",
		Long: strings.TrimSpace(`
Fetch pages until a short page comes back. If a page fails, the items
gathered so far are still printed and the command exits with an error.
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if pageSize < 0 {
				return fmt.Errorf("--page-size must be >= 0")
			}
			params, err := filters.params(cmd)
			if err != nil {
				return err
			}
			params.Limit = pageSize

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Media().All(ctx, params)
				if result == nil {
					return err
				}

				var printErr error
				if isJSON(cmd) {
					printErr = printJSON(cmd, result.Items)
				} else {
					printErr = printMediaTable(cmd, result.Items)
				}
				if !result.Complete() {
					return fmt.Errorf("fetched %d items before failing: %w", len(result.Items), result.Err)
				}
				return printErr
			})
		}),
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&pageSize, "page-size", api.DefaultPageSize, "Items requested per page")

	return cmd
}

func newMediaEditCmd() *cobra.Command {
	var (
		name          string
		description   string
		copyright     string
		datePublished string
		archive       bool
		public        bool
		properties    []string
	)

	cmd := &cobra.Command{
		Use:   "edit <id-or-url>",
		Short: "Update media properties",
		Example: strings.TrimSpace(`
  # Rename and archive
  bynder media edit 4A3B... --name "Launch banner" --archive

  # Assign a metaproperty option
  bynder media edit 4A3B... --property metaproperty.1F2E...=9C8D...
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := resourceArg(args[0], "media")
			if err != nil {
				return err
			}
			params := api.MediaEditParams{
				ID:            id,
				Name:          name,
				Description:   description,
				Copyright:     copyright,
				DatePublished: datePublished,
				Archive:       boolPtrIfChanged(cmd, "archive", archive),
				IsPublic:      boolPtrIfChanged(cmd, "public", public),
			}
			if len(properties) > 0 {
				params.Properties = make(map[string]string, len(properties))
				for _, prop := range properties {
					key, value, ok := strings.Cut(prop, "=")
					if !ok || strings.TrimSpace(key) == "" {
						return fmt.Errorf("invalid --property %q: must be key=value", prop)
					}
					params.Properties[strings.TrimSpace(key)] = value
				}
			}

			form, err := params.Form()
			if err != nil {
				return err
			}
			if done, err := previewWrite(cmd, dryrun.New("update", "media", id, http.MethodPost, "/v4/media/").WithForm(form)); done {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Media().Edit(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to edit media %s: %w", id, err)
				}
				return printResult(cmd, "Updated", "media", id, result)
			})
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&copyright, "copyright", "", "Copyright message")
	cmd.Flags().StringVar(&datePublished, "date-published", "", "Publication date (ISO 8601)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Archive (true) or unarchive (false)")
	cmd.Flags().BoolVar(&public, "public", false, "Mark public (true) or not (false)")
	cmd.Flags().StringArrayVar(&properties, "property", nil, "Extra form field as key=value (repeatable)")

	return cmd
}

func newMediaDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id-or-url>",
		Aliases: []string{"rm"},
		Short:   "Delete a media item",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := resourceArg(args[0], "media")
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/v4/media/%s/", url.PathEscape(id))
			if done, err := previewWrite(cmd, dryrun.New("delete", "media", id, http.MethodDelete, path)); done {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Media().Delete(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to delete media %s: %w", id, err)
				}
				return printResult(cmd, "Deleted", "media", id, result)
			})
		}),
	}
	return cmd
}
