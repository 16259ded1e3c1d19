package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nominatimPayload = `[
	{"display_name": "Rua das Flores, Fortaleza, CE", "lat": "-3.7327", "lon": "-38.5270"},
	{"display_name": "Rua das Flores, Recife, PE", "lat": "-8.0476", "lon": "-34.8770"},
	{"display_name": "sem coordenadas", "lat": "abc", "lon": "-1"}
]`

func newTestClient(t *testing.T, upstream string) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClient(upstream, rdb), mr
}

func TestSearchParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nominatimPayload))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	candidates, err := client.Search(context.Background(), "Rua das Flores")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Rua das Flores, Fortaleza, CE", candidates[0].Label)
	assert.InDelta(t, -3.7327, candidates[0].Latitude, 0.0001)
	assert.InDelta(t, -38.5270, candidates[0].Longitude, 0.0001)
}

func TestSearchServesFromCache(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nominatimPayload))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	_, err := client.Search(context.Background(), "Rua das Flores")
	require.NoError(t, err)
	_, err = client.Search(context.Background(), "rua das flores")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestSearchEmptyQuery(t *testing.T) {
	client, _ := newTestClient(t, "http://invalid.test")
	candidates, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(t, server.URL)
	_, err := client.Search(context.Background(), "Rua das Flores")
	require.Error(t, err)
}
