package objectcache_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flamesh/flame"
	"github.com/flamesh/flame/objectcache"
)

func TestPutGetUpdate(t *testing.T) {
	var stored []byte
	var version int64 = 1

	mux := http.NewServeMux()
	mux.HandleFunc("/objects/sess-1", func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		stored = body
		_ = json.NewEncoder(w).Encode(map[string]any{
			"endpoint": "", // replaced below
			"version":  version,
			"size":     len(body),
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	endpoint := srv.URL + "/objects/obj-1"
	mux.HandleFunc("/objects/obj-1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"version": version, "data": stored})
		case http.MethodPut:
			var req struct {
				Version int64  `json:"version"`
				Data    []byte `json:"data"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Version != version {
				w.WriteHeader(http.StatusConflict)
				return
			}
			version++
			stored = req.Data
			_ = json.NewEncoder(w).Encode(map[string]any{"endpoint": endpoint, "version": version, "size": len(stored)})
		}
	})

	client := objectcache.New(srv.URL)

	ref, err := client.PutBytes(t.Context(), flame.SessionID("sess-1"), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(1), ref.Version)

	ref.URL = endpoint
	data, err := client.GetBytes(t.Context(), ref)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	ref2, err := client.UpdateBytes(t.Context(), ref, []byte("world"))
	require.NoError(t, err)
	require.Equal(t, int64(2), ref2.Version)

	// a stale version must conflict
	_, err = client.UpdateBytes(t.Context(), ref, []byte("stale"))
	require.Error(t, err)
	fe, ok := flame.AsError(err)
	require.True(t, ok)
	require.Equal(t, flame.CodeInvalidState, fe.Code)
}

func TestGetBytesInline(t *testing.T) {
	client := objectcache.New("http://unused")
	ref := &flame.ObjectRef{Inline: []byte("inline-data")}
	data, err := client.GetBytes(t.Context(), ref)
	require.NoError(t, err)
	require.Equal(t, []byte("inline-data"), data)
}
