package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/debug"
	"github.com/bynder/bynder-cli/internal/dryrun"
	"github.com/bynder/bynder-cli/internal/filter"
	"github.com/bynder/bynder-cli/internal/iocontext"
	"github.com/bynder/bynder-cli/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output  string
	JQ      string
	Debug   bool
	Timeout time.Duration
	Profile string
	Compact bool
	DryRun  bool

	TimeoutSet bool
}

// flags holds the global command flags. This is package-level mutable state
// that MUST be reset at the start of every Execute() call. Tests depend on
// this reset to get clean state.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:  defaultOutput(),
		Timeout: api.DefaultTimeout,
	}
}

func defaultOutput() string {
	value := strings.TrimSpace(os.Getenv("BYNDER_OUTPUT"))
	if value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

// loadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment are not overwritten.
func loadDotEnv() {
	path := strings.TrimSpace(os.Getenv("BYNDER_ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	// Runs before the flag reset so BYNDER_OUTPUT from .env is honored.
	loadDotEnv()
	flags = defaultFlags()

	root := newRootCmd()
	root.SetContext(ctx)
	root.SetArgs(args)

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			enhanced := enhanceUnknownError(err, root, targetCmd)
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanced)
		}
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                "bynder",
		Short:              "CLI for the Bynder digital asset management API",
		Long:               "Browse and manage media, metaproperties and smart filters of a Bynder portal.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // did-you-mean comes from enhanceUnknownError
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			flags.TimeoutSet = flagOrAliasChanged(cmd, "timeout")
			if flags.TimeoutSet && flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be > 0")
			}

			if flags.JQ != "" {
				if err := filter.Validate(flags.JQ); err != nil {
					return fmt.Errorf("invalid --jq expression: %w", err)
				}
				if flags.Output == "text" {
					if flagOrAliasChanged(cmd, "output") {
						return fmt.Errorf("--jq requires --output json or jsonl")
					}
					flags.Output = "json"
				}
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}

			logger := debug.NewLogger(flags.Debug)
			ctx = debug.Attach(ctx, logger, flags.Debug)

			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			ctx = dryrun.WithDryRun(ctx, flags.DryRun)
			if flags.JQ != "" {
				ctx = outfmt.WithQuery(ctx, flags.JQ)
			}

			ioStreams := iocontext.DefaultIO()
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env BYNDER_OUTPUT)")
	root.PersistentFlags().StringVar(&flags.JQ, "jq", "", "JQ expression to filter JSON output")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	root.PersistentFlags().StringVarP(&flags.Profile, "profile", "p", "", "Config profile to use (env BYNDER_PROFILE)")
	root.PersistentFlags().BoolVar(&flags.Compact, "compact", false, "Compact JSON output (no indentation)")
	root.PersistentFlags().BoolVarP(&flags.DryRun, "dry-run", "n", false, "Show the request a write command would send without sending it")

	flagAlias(root.PersistentFlags(), "output", "out")
	flagAlias(root.PersistentFlags(), "jq", "query")
	flagAlias(root.PersistentFlags(), "debug", "dbg")
	flagAlias(root.PersistentFlags(), "timeout", "to")
	flagAlias(root.PersistentFlags(), "compact", "compact-json")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newMediaCmd())
	root.AddCommand(newMetapropertiesCmd())
	root.AddCommand(newSmartFiltersCmd())
	root.AddCommand(newUsersCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
// targetCmd is the command Cobra resolved before the error (may be root itself).
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		unknown := extractQuoted(msg)
		if unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden {
						return
					}
					name := "--" + f.Name
					if !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				})
			}
			helpCmd := "bynder --help"
			if targetCmd != nil {
				addFlags(targetCmd.Flags())
				addFlags(targetCmd.InheritedFlags())
				helpCmd = targetCmd.CommandPath() + " --help"
			} else {
				addFlags(root.PersistentFlags())
			}
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexAny(rest, " =\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
