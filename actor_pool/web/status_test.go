package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keenzhang/pool/actor_pool/pool"
)

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	NewStatusHandler().RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func registerFakePool(t *testing.T, name string) {
	t.Helper()
	_, err := pool.Register(name, &pool.Options{
		MinSize: 1,
		MaxSize: 2,
		Factory: func() (interface{}, error) { return struct{}{}, nil },
		Close:   func(interface{}) error { return nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Deregister(name) })

	require.Eventually(t, func() bool {
		st, err := pool.StatusOf(name)
		return err == nil && st.Available == 1
	}, time.Second*2, time.Millisecond*5)
}

func TestPoolStatusEndpoint(t *testing.T) {
	const name = "web-main"
	registerFakePool(t, name)
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/pools/" + name + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st pool.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 1, st.MinSize)
	assert.Equal(t, 2, st.MaxSize)
	assert.Equal(t, 1, st.Available)
	assert.Equal(t, 0, st.Busy)
}

func TestPoolStatusUnknownPool(t *testing.T) {
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/pools/ghost/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var er ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Contains(t, er.Error, "ghost")
}

func TestAllPoolsEndpoint(t *testing.T) {
	const name = "web-list"
	registerFakePool(t, name)
	srv := newStatusServer(t)

	resp, err := http.Get(srv.URL + "/pools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all map[string]pool.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	require.Contains(t, all, name)
	assert.Equal(t, 1, all[name].MinSize)
}
