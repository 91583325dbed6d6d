package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/waiter"
)

func TestHTTP_WaitsForReadiness(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ready","checks":{"db":"ok"}}`)
	}))
	defer srv.Close()

	w, err := waiter.New[HTTPResult]("http-ready",
		waiter.WithStrategy[HTTPResult](waiter.Strategy{MaxAttempts: 5, Backoff: waiter.None()}),
		waiter.WithAcceptor(waiter.SuccessWhen(func(r HTTPResult) bool {
			return r.Status == http.StatusOK && r.JSONString("status") == "ready"
		})),
	)
	require.NoError(t, err)

	resp, err := w.Run(context.Background(), HTTP(srv.Client(), http.MethodGet, srv.URL))
	require.NoError(t, err)
	require.Equal(t, 3, resp.Attempts())

	res, ok := resp.Value()
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.JSONString("checks", "db"))
}

func TestHTTP_AnyResponseIsAValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := HTTP(srv.Client(), http.MethodGet, srv.URL)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, string(res.Body), "nope")
}

func TestHTTP_TransportErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := HTTP(nil, http.MethodGet, url)(context.Background())
	require.Error(t, err)
}

func TestHTTPResult_JSONString(t *testing.T) {
	body := []byte(`{
		"status": "green",
		"shards": {"active": 12},
		"nodes": [{"name": "a"}, {"name": "b"}]
	}`)

	cases := map[string]struct {
		res  HTTPResult
		path []any
		want string
	}{
		"top level":   {res: HTTPResult{Body: body}, path: []any{"status"}, want: "green"},
		"nested":      {res: HTTPResult{Body: body}, path: []any{"shards", "active"}, want: "12"},
		"array index": {res: HTTPResult{Body: body}, path: []any{"nodes", 1, "name"}, want: "b"},
		"missing":     {res: HTTPResult{Body: body}, path: []any{"shards", "relocating"}, want: ""},
		"empty body":  {res: HTTPResult{}, path: []any{"status"}, want: ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.res.JSONString(tc.path...))
		})
	}
}
