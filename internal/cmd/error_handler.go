package cmd

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/auth"
	"github.com/bynder/bynder-cli/internal/config"
	"github.com/bynder/bynder-cli/internal/resolve"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.APIError
	var validationErr *api.ValidationError
	var credErr *api.CredentialError
	var configErr *api.ConfigError
	var retrieveErr *oauth2.RetrieveError
	var providerErr *auth.ProviderError
	var ambiguousErr *resolve.AmbiguousError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("No Bynder portal configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: bynder config set base_url https://your-portal.bynder.com\n")
		msg.WriteString("  - Or export BYNDER_BASE_URL\n")

	case errors.As(err, &validationErr):
		fmt.Fprintf(&msg, "Error: %s\n", validationErr.Error())

	case errors.As(err, &credErr):
		fmt.Fprintf(&msg, "Not authenticated: %s\n\n", credErr.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: bynder auth login\n")
		msg.WriteString("  - Or store a permanent token: bynder auth token set-permanent\n")

	case errors.As(err, &retrieveErr):
		reason := retrieveErr.ErrorCode
		if reason == "" {
			reason = err.Error()
		}
		fmt.Fprintf(&msg, "Authorization failed: %s\n\n", reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Authorization codes are single use and expire quickly\n")
		msg.WriteString("  - Check client_id, client secret and redirect_uri: bynder config show\n")
		msg.WriteString("  - Run: bynder auth login\n")

	case errors.As(err, &providerErr):
		fmt.Fprintf(&msg, "Authorization was not granted: %s\n", providerErr.Error())

	case errors.As(err, &configErr):
		fmt.Fprintf(&msg, "Invalid configuration: %s\n\n", configErr.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Review settings: bynder config show\n")
		if configErr.Field == "token" {
			msg.WriteString("  - Log in again to replace the stored token: bynder auth login\n")
		}

	case errors.As(err, &ambiguousErr):
		fmt.Fprintf(&msg, "Error: %s\n", ambiguousErr.Error())
		msg.WriteString("\nUse the ID instead of the name.\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Message())
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the portal URL: bynder config show\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the portal URL spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the portal's SSL certificate\n")
		msg.WriteString("  - Ensure the base URL uses https://\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")

	case 401:
		suggestions.WriteString("  - Your token may be invalid or expired\n")
		suggestions.WriteString("  - Run: bynder auth login\n")

	case 403:
		suggestions.WriteString("  - You don't have permission for this action\n")
		suggestions.WriteString("  - Check the scopes granted to your token\n")

	case 404:
		suggestions.WriteString("  - The resource doesn't exist\n")
		suggestions.WriteString("  - Check the ID is correct\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry in a few seconds\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}
