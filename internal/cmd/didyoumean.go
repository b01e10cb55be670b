package cmd

import (
	"strings"

	"github.com/bynder/bynder-cli/internal/resolve"
)

// suggestCommand finds the closest command name to the unknown input.
// Returns empty string if nothing matches.
func suggestCommand(unknown string, commands []string) string {
	if matches := resolve.Suggest(unknown, commands, 1); len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// suggestFlag finds the closest flag name to the unknown input.
// Leading dashes are ignored for matching but kept in the result.
func suggestFlag(unknown string, flags []string) string {
	stripped := strings.TrimLeft(unknown, "-")
	if stripped == "" {
		return ""
	}
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = strings.TrimLeft(f, "-")
	}
	matches := resolve.Suggest(stripped, names, 1)
	if len(matches) == 0 {
		return ""
	}
	for _, f := range flags {
		if strings.TrimLeft(f, "-") == matches[0] {
			return f
		}
	}
	return ""
}
