package api

import (
	"context"
	"encoding/json"
	"net/url"
)

// Requester is the request surface resource helpers depend on.
//
// Paths are relative to the API base URL (for example "v4/media/123/").
// For POST the params are sent as a form-url-encoded entity; for every other
// verb they are appended to the URL as a query string.
//
// Both *Executor and *Client satisfy Requester, and tests substitute a
// recording fake to check routing without a server:
//
//	type fakeRequester struct{ calls []call }
//	func (f *fakeRequester) Send(...) (json.RawMessage, error) { ... }
type Requester interface {
	// Send performs one authenticated round trip and returns the normalised
	// response body.
	Send(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error)

	// do is Send followed by decoding the body into result when result is non-nil.
	do(ctx context.Context, method, path string, params url.Values, result any) error
}
