package subgraph_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
	"github.com/dexrelay-systems/dexrelay/internal/subgraph"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRecent_ReturnsRawRecords(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Query, "swaps(first: $first")
		assert.EqualValues(t, 2, body.Variables["first"])

		w.Write([]byte(`{"data":{"swaps":[{"id":"a"},{"id":"b"}]}}`))
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV2, srv.URL)

	records, err := src.FetchRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"id":"a"}`, string(records[0]))
}

func TestFetchRecent_GraphQLErrorsBeatPartialData(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"swaps":[]},"errors":[{"message":"indexing degraded"}]}`))
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV3, srv.URL)

	_, err := src.FetchRecent(context.Background(), 10)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindProtocol, kind)
	assert.Contains(t, err.Error(), "indexing degraded")
}

func TestFetchRecent_HTTPStatusIsTransport(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV2, srv.URL)

	_, err := src.FetchRecent(context.Background(), 5)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindTransport, kind)
	assert.True(t, fault.Retryable(err))
}

func TestFetchRecent_MalformedBodyIsSerialization(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [not json`))
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV2, srv.URL)

	_, err := src.FetchRecent(context.Background(), 5)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindSerialization, kind)
}

func TestFetchRecent_ConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV2, url)

	_, err := src.FetchRecent(context.Background(), 5)
	require.Error(t, err)
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.KindTransport, kind)
}

func TestFetchRecent_NullDataYieldsNoRecords(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV3, srv.URL)

	records, err := src.FetchRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCheckHealth(t *testing.T) {
	healthy := true
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Query, "_meta")

		if healthy {
			w.Write([]byte(`{"data":{"_meta":{"block":{"number":123}}}}`))
			return
		}
		w.Write([]byte(`{"errors":[{"message":"store error"}]}`))
	})

	client := subgraph.NewClient(time.Second, nil)
	src := subgraph.NewSource(client, model.VersionV2, srv.URL)

	require.NoError(t, src.CheckHealth(context.Background()))

	healthy = false
	err := src.CheckHealth(context.Background())
	require.Error(t, err)
	kind, _ := fault.KindOf(err)
	assert.Equal(t, fault.KindProtocol, kind)
}
