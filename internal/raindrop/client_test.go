package raindrop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x2raindrop/internal/domain"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Token: "rd-token"}, testLogger())
}

func TestCreateBookmark(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/raindrop", r.URL.Path)
		assert.Equal(t, "Bearer rd-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":true,"item":{"_id":555,"link":"https://example.com","title":"Server title","collection":{"$id":99}}}`))
	})

	created, err := c.CreateBookmark(context.Background(), domain.CreationRequest{
		URL:          "https://example.com",
		Title:        "Alice (@alice): hi",
		Excerpt:      "hi https://example.com",
		Tags:         []string{"x", "bookmarks"},
		CollectionID: 99,
		Note:         "From: https://x.com/alice/status/1",
		SourceItemID: "1",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(555), created.ID)
	assert.Equal(t, "https://example.com", created.URL)
	assert.Equal(t, "Server title", created.Title)
	assert.Equal(t, int64(99), created.CollectionID)

	assert.Equal(t, "https://example.com", got["link"])
	assert.Equal(t, "hi https://example.com", got["excerpt"])
	assert.Equal(t, "From: https://x.com/alice/status/1", got["note"])
	assert.Equal(t, map[string]any{"$id": float64(99)}, got["collection"])
	assert.Equal(t, []any{"x", "bookmarks"}, got["tags"])
}

func TestCreateBookmark_NoExcerptEmbedsSourceID(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":true,"item":{"_id":1,"title":""}}`))
	})

	_, err := c.CreateBookmark(context.Background(), domain.CreationRequest{
		URL:          "https://x.com/i/status/7",
		CollectionID: 1,
		SourceItemID: "7",
	})
	require.NoError(t, err)
	assert.Equal(t, "X post 7", got["note"])
	assert.Equal(t, "X post 7", got["excerpt"])
	assert.NotContains(t, got, "tags")
}

func TestCreateBookmark_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"result":false,"error":"unauthorized","errorMessage":"Invalid token"}`))
		})
		_, err := c.CreateBookmark(context.Background(), domain.CreationRequest{URL: "https://a"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid token", apiErr.Message)
	})

	t.Run("result false", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":false,"errorMessage":"collection not found"}`))
		})
		_, err := c.CreateBookmark(context.Background(), domain.CreationRequest{URL: "https://a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collection not found")
	})

	t.Run("missing token", func(t *testing.T) {
		c := New(Options{BaseURL: "http://127.0.0.1:1"}, testLogger())
		_, err := c.CreateBookmark(context.Background(), domain.CreationRequest{URL: "https://a"})
		require.Error(t, err)
	})
}

func collectionsHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections":
			_, _ = w.Write([]byte(`{"result":true,"items":[{"_id":1,"title":"Reading","count":10},{"_id":2,"title":"Work","count":3}]}`))
		case "/collections/childrens":
			_, _ = w.Write([]byte(`{"result":true,"items":[{"_id":3,"title":"X Bookmarks","count":0,"parent":{"$id":1}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestListCollections(t *testing.T) {
	c := newTestClient(t, collectionsHandler(t))

	cols, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "Reading", cols[0].Title)
	assert.Equal(t, 10, cols[0].Count)
	assert.Nil(t, cols[0].ParentID)

	assert.Equal(t, int64(3), cols[2].ID)
	require.NotNil(t, cols[2].ParentID)
	assert.Equal(t, int64(1), *cols[2].ParentID)
}

func TestCollectionByTitle(t *testing.T) {
	c := newTestClient(t, collectionsHandler(t))

	col, ok, err := c.CollectionByTitle(context.Background(), "x bookmarks")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), col.ID)

	_, ok, err = c.CollectionByTitle(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
