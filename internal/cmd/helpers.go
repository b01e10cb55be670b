package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/dryrun"
	"github.com/bynder/bynder-cli/internal/iocontext"
	"github.com/bynder/bynder-cli/internal/outfmt"
	"github.com/bynder/bynder-cli/internal/urlparse"
	"github.com/bynder/bynder-cli/internal/validation"
)

// formatter returns an output formatter bound to the command's streams.
func formatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// printJSON outputs data as JSON with optional --jq filtering
func printJSON(cmd *cobra.Command, v any) error {
	return formatter(cmd).Output(v)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

// printResult renders a create/edit/delete response.
func printResult(cmd *cobra.Command, action, resource, id string, result api.Result) error {
	if isJSON(cmd) {
		return printJSON(cmd, result)
	}

	out := iocontext.GetIO(cmd.Context()).Out
	message := fmt.Sprintf("%s %s", action, resource)
	if id != "" {
		message = fmt.Sprintf("%s %s", message, id)
	}
	if msg, ok := result["message"].(string); ok && msg != "" {
		message = fmt.Sprintf("%s: %s", message, msg)
	}
	_, _ = fmt.Fprintln(out, message)
	return nil
}

// previewWrite prints p and returns true when --dry-run is set. Callers
// return before opening a client, so no credentials are needed.
func previewWrite(cmd *cobra.Command, p *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if isJSON(cmd) {
		return true, printJSON(cmd, p)
	}
	p.Write(iocontext.GetIO(cmd.Context()).Out)
	return true, nil
}

// resourceArg accepts an ID or a portal/API URL pointing at resourceType.
func resourceArg(arg, resourceType string) (string, error) {
	id, err := urlparse.ResourceID(arg, resourceType)
	if err != nil {
		return "", fmt.Errorf("invalid argument %q: %w", arg, err)
	}
	return id, nil
}

// readJSONArg parses a JSON object given inline, as @path, or as "-" for stdin.
func readJSONArg(cmd *cobra.Command, arg string) (map[string]any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" {
		data, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON from stdin: %w", err)
		}
		arg = string(data)
	} else if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		arg = string(data)
	}
	return validation.ParseJSONObject(arg)
}

// aliasBridgeValue wraps a flag's Value so that setting it through an alias
// also marks the canonical flag as changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers a hidden alias for an existing flag.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && fs.Changed(f.Name) {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

// boolPtrIfChanged returns a pointer to value only when the flag was set.
func boolPtrIfChanged(cmd *cobra.Command, flag string, value bool) *bool {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			if isJSON(cmd) {
				if structured := api.StructuredErrorFromError(err); structured != nil {
					_ = printJSONErr(cmd, structured)
				}
			} else {
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			}
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}
