package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/cache"
	"github.com/bynder/bynder-cli/internal/dryrun"
	"github.com/bynder/bynder-cli/internal/outfmt"
	"github.com/bynder/bynder-cli/internal/resolve"
	"github.com/bynder/bynder-cli/internal/urlparse"
	"github.com/bynder/bynder-cli/internal/validation"
)

func newMetapropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "metaproperties",
		Aliases: []string{"metaproperty", "mp"},
		Short:   "Manage metaproperties and their options",
		Long: strings.TrimSpace(`
Manage metaproperties and their options.

Payloads for create and edit are JSON objects given inline, as @file, or
as - to read stdin.
`),
	}

	cmd.AddCommand(newMetapropertiesListCmd())
	cmd.AddCommand(newMetapropertiesGetCmd())
	cmd.AddCommand(newMetapropertiesCreateCmd())
	cmd.AddCommand(newMetapropertiesEditCmd())
	cmd.AddCommand(newMetapropertiesDeleteCmd())
	cmd.AddCommand(newMetapropertyOptionCreateCmd())
	cmd.AddCommand(newMetapropertyOptionEditCmd())

	return cmd
}

func newMetapropertiesListCmd() *cobra.Command {
	var (
		count   bool
		options bool
		mpType  string
		ids     string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List metaproperties",
		Example: strings.TrimSpace(`
  # Names and IDs
  bynder metaproperties list

  # With options and media counts, as JSON
  bynder metaproperties list --options --count -o json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			params := api.MetapropertyListParams{
				Count:   count,
				Options: options,
				Type:    mpType,
				IDs:     validation.SplitList(ids),
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				items, err := client.Metaproperties().List(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to list metaproperties: %w", err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, items)
				}

				f := formatter(cmd)
				if len(items) == 0 {
					f.Empty("No metaproperties found")
					return nil
				}
				names := make([]string, 0, len(items))
				for name := range items {
					names = append(names, name)
				}
				sort.Strings(names)

				f.StartTable([]string{"NAME", "ID", "LABEL", "TYPE"})
				for _, name := range names {
					mp := items[name]
					f.Row(name, mp.ID(), outfmt.Cell(mp["label"]), outfmt.Cell(mp["type"]))
				}
				return f.EndTable()
			})
		}),
	}

	cmd.Flags().BoolVar(&count, "count", false, "Include media counts per option")
	cmd.Flags().BoolVar(&options, "options", false, "Include options")
	cmd.Flags().StringVar(&mpType, "type", "", "Only metaproperties used for this media type")
	cmd.Flags().StringVar(&ids, "ids", "", "Comma separated metaproperty IDs")

	return cmd
}

// metapropertyCache returns the name-resolution cache for the client's
// portal, or nil when no cache directory is available.
func metapropertyCache(client *api.Client) *cache.Store {
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil
	}
	return cache.NewStore(dir, "metaproperties", client.Executor().BaseURL)
}

// resolveMetapropertyID maps a metaproperty ID or name to its ID. A cached
// listing is tried first; any miss on it falls back to a fresh listing.
func resolveMetapropertyID(ctx context.Context, client *api.Client, query string) (string, error) {
	store := metapropertyCache(client)

	var cached map[string]api.Metaproperty
	if store.Get(&cached) {
		if id, err := resolve.Lookup(query, resolve.FromMap(cached, api.Metaproperty.ID)); err == nil {
			zerolog.Ctx(ctx).Debug().Str("query", query).Str("id", id).Msg("metaproperty resolved from cache")
			return id, nil
		}
	}

	items, err := client.Metaproperties().List(ctx, api.MetapropertyListParams{})
	if err != nil {
		return "", fmt.Errorf("failed to list metaproperties: %w", err)
	}
	store.Put(items)
	return resolve.Lookup(query, resolve.FromMap(items, api.Metaproperty.ID))
}

func metapropertyPath(id string) string {
	return fmt.Sprintf("/v4/metaproperties/%s/", url.PathEscape(id))
}

func newMetapropertiesGetCmd() *cobra.Command {
	var exactID bool

	cmd := &cobra.Command{
		Use:     "get <id-or-name>",
		Aliases: []string{"g"},
		Short:   "Get a metaproperty by ID or name",
		Long: strings.TrimSpace(`
Get a metaproperty. The argument may be an ID, an API URL or a name; names
are matched exactly first (case-insensitive) and then fuzzily.
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := resourceArg(args[0], "metaproperty")
			if err != nil {
				return err
			}
			byID := exactID || urlparse.IsURL(args[0])

			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				if !byID {
					resolved, err := resolveMetapropertyID(ctx, client, id)
					if err != nil {
						return err
					}
					id = resolved
				}

				mp, err := client.Metaproperties().Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get metaproperty %s: %w", id, err)
				}
				if isJSON(cmd) {
					return printJSON(cmd, mp)
				}
				return formatter(cmd).Record(mp)
			})
		}),
	}

	cmd.Flags().BoolVar(&exactID, "id", false, "Treat the argument as an ID and skip name resolution")
	return cmd
}

func newMetapropertiesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <json>",
		Short: "Create a metaproperty",
		Example: strings.TrimSpace(`
  bynder metaproperties create '{"name":"Region","label":"Region","type":"select"}'
  bynder metaproperties create @region.json
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			data, err := readJSONArg(cmd, args[0])
			if err != nil {
				return err
			}
			if done, err := previewWrite(cmd, dryrun.New("create", "metaproperty", "", http.MethodPost, "/v4/metaproperties/").WithFields(data)); done {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Metaproperties().Create(ctx, api.Metaproperty(data))
				if err != nil {
					return fmt.Errorf("failed to create metaproperty: %w", err)
				}
				metapropertyCache(client).Clear()
				return printResult(cmd, "Created", "metaproperty", api.Metaproperty(data).Name(), result)
			})
		}),
	}
	return cmd
}

func newMetapropertiesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id> <json>",
		Short: "Modify a metaproperty",
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			data, err := readJSONArg(cmd, args[1])
			if err != nil {
				return err
			}
			if done, err := previewWrite(cmd, dryrun.New("update", "metaproperty", args[0], http.MethodPost, metapropertyPath(args[0])).WithFields(data)); done {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Metaproperties().Edit(ctx, args[0], api.Metaproperty(data))
				if err != nil {
					return fmt.Errorf("failed to edit metaproperty %s: %w", args[0], err)
				}
				metapropertyCache(client).Clear()
				return printResult(cmd, "Updated", "metaproperty", args[0], result)
			})
		}),
	}
	return cmd
}

func newMetapropertiesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a metaproperty",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if done, err := previewWrite(cmd, dryrun.New("delete", "metaproperty", args[0], http.MethodDelete, metapropertyPath(args[0]))); done {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Metaproperties().Delete(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to delete metaproperty %s: %w", args[0], err)
				}
				metapropertyCache(client).Clear()
				return printResult(cmd, "Deleted", "metaproperty", args[0], result)
			})
		}),
	}
	return cmd
}

func newMetapropertyOptionCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option-create <metaproperty-id> <json>",
		Short: "Add an option to a metaproperty",
		Long:  "Add an option to a metaproperty. The payload must carry a \"name\".",
		Example: strings.TrimSpace(`
  bynder metaproperties option-create 1F2E... '{"name":"emea","label":"EMEA"}'
`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			data, err := readJSONArg(cmd, args[1])
			if err != nil {
				return err
			}
			if done, err := previewWrite(cmd, dryrun.New("create", "option", "", http.MethodPost, metapropertyPath(args[0])+"options/").WithFields(data)); done {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Metaproperties().CreateOption(ctx, args[0], api.MetapropertyOption(data))
				if err != nil {
					return fmt.Errorf("failed to create option on metaproperty %s: %w", args[0], err)
				}
				name, _ := data["name"].(string)
				return printResult(cmd, "Created", "option", name, result)
			})
		}),
	}
	return cmd
}

func newMetapropertyOptionEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option-edit <metaproperty-id> <option-id> <json>",
		Short: "Modify a metaproperty option",
		Args:  cobra.ExactArgs(3),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			data, err := readJSONArg(cmd, args[2])
			if err != nil {
				return err
			}
			path := metapropertyPath(args[0]) + "options/" + url.PathEscape(args[1]) + "/"
			if done, err := previewWrite(cmd, dryrun.New("update", "option", args[1], http.MethodPost, path).WithFields(data)); done {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client *api.Client) error {
				result, err := client.Metaproperties().EditOption(ctx, args[0], args[1], api.MetapropertyOption(data))
				if err != nil {
					return fmt.Errorf("failed to edit option %s: %w", args[1], err)
				}
				return printResult(cmd, "Updated", "option", args[1], result)
			})
		}),
	}
	return cmd
}
