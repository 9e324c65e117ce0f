package boti

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/embedder/mock"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/IA-UD-Tech/backend-boti/storer/memory"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, opts ...Option) (*mux.Router, *Boti) {
	t.Helper()

	e := mock.NewEmbedder(embedder.WithDimensions(256))
	store := memory.NewStorer(storer.WithDimensions(e.Dimensions()))

	b, err := New(store, e, opts...)
	require.NoError(t, err)

	router := mux.NewRouter()
	b.RegisterRoutes(router)

	return router, b
}

func post(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))

	return rec
}

func TestNew_SyncSearch(t *testing.T) {
	router, b := newRouter(t)
	defer b.Close()

	rec := post(t, router, "/api/v1/documents", map[string]any{"name": "returns", "text_content": "refund policy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post(t, router, "/api/v1/documents/search?query=refund+policy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []struct {
			Similarity float64 `json:"similarity"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.InDelta(t, 1.0, body.Results[0].Similarity, 1e-6)
}

func TestNew_AsyncIndexesOnClose(t *testing.T) {
	router, b := newRouter(t, WithMode(ModeAsync), WithBreaker(searcher.BreakerOptions{Enabled: true, Failures: 3, Cooldown: time.Second}))

	rec := post(t, router, "/api/v1/documents", map[string]any{"name": "returns", "text_content": "refund policy"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, b.indexer.Close())

	rec = post(t, router, "/api/v1/documents/search?query=refund+policy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"returns"`)

	require.NoError(t, b.Close())
}

func TestNew_UnknownMode(t *testing.T) {
	e := mock.NewEmbedder()
	_, err := New(memory.NewStorer(), e, WithMode("eventually"))
	assert.Error(t, err)
}

func TestNewOptions_Defaults(t *testing.T) {
	options := NewOptions()
	assert.Equal(t, ModeSync, options.Mode)
	assert.Equal(t, 0.5, options.SearchThreshold)
	assert.Equal(t, 5, options.SearchLimit)
	assert.Nil(t, options.Verifier)
}
