package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartFiltersList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v4/smartfilters/", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"id":"sf1","labels":{"en_US":"Region"}}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	filters, err := client.SmartFilters().List(context.Background())
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "sf1", filters[0]["id"])
}

func TestSmartFiltersList_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	filters, err := client.SmartFilters().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, filters)
}
