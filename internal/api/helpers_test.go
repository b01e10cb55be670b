package api

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRedirectURI = "https://app.example.com/oauth/callback"

// newTestClient creates a client signed with a permanent token.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:        baseURL,
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		RedirectURI:    testRedirectURI,
		PermanentToken: "test-token",
	})
	require.NoError(t, err)
	return client
}

type recordedCall struct {
	Method string
	Path   string
	Params url.Values
}

// fakeRequester records calls and replays canned responses in order.
type fakeRequester struct {
	calls     []recordedCall
	responses []fakeResponse
}

type fakeResponse struct {
	body string
	err  error
}

func (f *fakeRequester) Send(_ context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	f.calls = append(f.calls, recordedCall{Method: method, Path: path, Params: params})
	if len(f.responses) == 0 {
		return emptyObject, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return json.RawMessage(next.body), nil
}

func (f *fakeRequester) do(ctx context.Context, method, path string, params url.Values, result any) error {
	body, err := f.Send(ctx, method, path, params)
	if err != nil {
		return err
	}
	return decode(body, result)
}
