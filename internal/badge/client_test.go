package badge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSkipMode(t *testing.T) {
	c := New("http://unused", true)

	res, err := c.Render(context.Background(), "Jane Doe", "X1")
	require.NoError(t, err)
	assert.Contains(t, res.DocumentURL, "X1")
}

func TestRenderPostsNameAndBarcode(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/render", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(RenderResult{DocumentURL: "https://cdn/badge.docx", Bytes: 1234})
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	res, err := c.Render(context.Background(), "Jane Doe", "X1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got["name"])
	assert.Equal(t, "X1", got["barcode"])
	assert.Equal(t, "https://cdn/badge.docx", res.DocumentURL)
	assert.Equal(t, 1234, res.Bytes)
}

func TestRenderSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	_, err := c.Render(context.Background(), "Jane Doe", "X1")
	require.Error(t, err)
}

func TestRenderRequiresBarcode(t *testing.T) {
	c := New("http://unused", false)
	_, err := c.Render(context.Background(), "Jane Doe", "")
	require.Error(t, err)
}
