// Package urlparse extracts resource IDs from Bynder portal and API URLs.
package urlparse

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ParsedURL is a Bynder URL reduced to the resource it points at.
type ParsedURL struct {
	BaseURL      string
	ResourceType string // media or metaproperty
	ResourceID   string
}

// Path segments naming a resource, mapped to its singular type.
var resourceTypes = map[string]string{
	"media":          "media",
	"metaproperties": "metaproperty",
}

// apiPattern matches /api/v4/{resource}/{id}/ with an optional trailing path.
var apiPattern = regexp.MustCompile(`^/api/v4/([a-z]+)/([^/]+)(?:/.*)?$`)

// Parse extracts the resource from a URL such as
// https://acme.bynder.com/media/?mediaId=ABC or
// https://acme.bynder.com/api/v4/metaproperties/XYZ/.
func Parse(rawURL string) (*ParsedURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: expected http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host")
	}
	base := parsed.Scheme + "://" + parsed.Host

	// Portal asset detail view.
	if id := strings.TrimSpace(parsed.Query().Get("mediaId")); id != "" {
		return &ParsedURL{BaseURL: base, ResourceType: "media", ResourceID: id}, nil
	}

	m := apiPattern.FindStringSubmatch(parsed.Path)
	if m == nil {
		return nil, fmt.Errorf("unrecognized Bynder URL %q: expected a mediaId query or /api/v4/{media|metaproperties}/{id}/", rawURL)
	}
	resource, ok := resourceTypes[m[1]]
	if !ok {
		return nil, fmt.Errorf("unsupported resource type %q: expected media or metaproperties", m[1])
	}
	id, err := url.PathUnescape(m[2])
	if err != nil {
		return nil, fmt.Errorf("invalid resource ID: %w", err)
	}
	return &ParsedURL{BaseURL: base, ResourceType: resource, ResourceID: id}, nil
}

// IsURL reports whether arg looks like an http(s) URL rather than an ID.
func IsURL(arg string) bool {
	arg = strings.ToLower(strings.TrimSpace(arg))
	return strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://")
}

// ResourceID returns arg unchanged when it is not a URL; otherwise it
// parses arg and checks that it points at the wanted resource type.
func ResourceID(arg, resourceType string) (string, error) {
	if !IsURL(arg) {
		return arg, nil
	}
	parsed, err := Parse(arg)
	if err != nil {
		return "", err
	}
	if parsed.ResourceType != resourceType {
		return "", fmt.Errorf("URL points to a %s, expected a %s", parsed.ResourceType, resourceType)
	}
	return parsed.ResourceID, nil
}
