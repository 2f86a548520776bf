package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kathyli05/kathboard/internal/logger"
	"github.com/kathyli05/kathboard/internal/metrics"
	"github.com/kathyli05/kathboard/internal/models"
	"github.com/kathyli05/kathboard/internal/storage"
)

func newTestServer(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Config{
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	}, storage.WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := New(store, logger.Discard(), metrics.New(store.DB()), []string{"http://localhost:3000"})
	return srv.Handler(), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createFriend(t *testing.T, h http.Handler, body map[string]any) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/friends", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]string](t, rec)["id"]
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestFriendRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	id := createFriend(t, h, map[string]any{
		"name":          "Alice",
		"hometown":      "Boston",
		"languages":     []string{"English", "Spanish"},
		"social_media":  map[string]string{"instagram": "@alice"},
		"favorite_food": "ignored",
	})

	rec := do(t, h, http.MethodGet, "/api/friends/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Alice", got["name"])
	assert.Equal(t, []any{"English", "Spanish"}, got["languages"])
	assert.Equal(t, map[string]any{"instagram": "@alice"}, got["social_media"])
	assert.NotContains(t, got, "favorite_food")

	rec = do(t, h, http.MethodPut, "/api/friends/"+id, map[string]any{"current_city": "NYC", "is_favorite": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"success": true}, decode[map[string]bool](t, rec))

	friend := decode[models.Friend](t, do(t, h, http.MethodGet, "/api/friends/"+id, nil))
	require.NotNil(t, friend.CurrentCity)
	assert.Equal(t, "NYC", *friend.CurrentCity)
	assert.True(t, friend.IsFavorite)

	createFriend(t, h, map[string]any{"name": "Bob", "hidden": true})

	list := decode[[]models.Friend](t, do(t, h, http.MethodGet, "/api/friends", nil))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	list = decode[[]models.Friend](t, do(t, h, http.MethodGet, "/api/friends?include_hidden=true&q=bo", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)

	rec = do(t, h, http.MethodDelete, "/api/friends/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/friends/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFriendErrors(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/friends", map[string]any{"hometown": "Nowhere"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "name")

	rec = do(t, h, http.MethodPost, "/api/friends", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/friends/missing", map[string]any{"hometown": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/friends/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/friends/missing", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAttributeRoutes(t *testing.T) {
	h, _ := newTestServer(t)
	id := createFriend(t, h, map[string]any{"name": "Alice"})

	for _, v := range []string{"blue", "green"} {
		rec := do(t, h, http.MethodPost, "/api/friends/"+id+"/attributes", map[string]any{"key": "favorite_color", "value": v})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	attrs := decode[[]models.Attribute](t, do(t, h, http.MethodGet, "/api/friends/"+id+"/attributes", nil))
	require.Len(t, attrs, 1)
	assert.Equal(t, "green", *attrs[0].Value)

	keys := decode[[]string](t, do(t, h, http.MethodGet, "/api/attribute-keys", nil))
	assert.Equal(t, []string{"favorite_color"}, keys)

	rec := do(t, h, http.MethodPost, "/api/friends/missing/attributes", map[string]any{"key": "k", "value": "v"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/friends/"+id+"/attributes", map[string]any{"key": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/friends/"+id+"/attributes", map[string]any{"key": "links/github", "value": "kath"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/friends/"+id+"/attributes/favorite_color", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/friends/"+id+"/attributes/links/github", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	attrs = decode[[]models.Attribute](t, do(t, h, http.MethodGet, "/api/friends/"+id+"/attributes", nil))
	assert.Empty(t, attrs)
}

func TestNoteRoutes(t *testing.T) {
	h, _ := newTestServer(t)
	id := createFriend(t, h, map[string]any{"name": "Alice"})

	rec := do(t, h, http.MethodPost, "/api/friends/"+id+"/notes", map[string]any{
		"content":  "Met at conference",
		"category": "work",
		"tags":     []string{"networking", "2024"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	noteID := decode[map[string]string](t, rec)["id"]

	notes := decode[[]models.Note](t, do(t, h, http.MethodGet, "/api/friends/"+id+"/notes", nil))
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"networking", "2024"}, notes[0].Tags)

	rec = do(t, h, http.MethodPut, "/api/notes/"+noteID, map[string]any{"tags": []string{"networking"}})
	require.Equal(t, http.StatusOK, rec.Code)

	notes = decode[[]models.Note](t, do(t, h, http.MethodGet, "/api/friends/"+id+"/notes", nil))
	require.Len(t, notes, 1)
	assert.Equal(t, "Met at conference", notes[0].Content)
	assert.Equal(t, "work", *notes[0].Category)
	assert.Equal(t, []string{"networking"}, notes[0].Tags)

	rec = do(t, h, http.MethodPost, "/api/friends/"+id+"/notes", map[string]any{"content": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPut, "/api/notes/missing", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/notes/"+noteID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	notes = decode[[]models.Note](t, do(t, h, http.MethodGet, "/api/friends/"+id+"/notes", nil))
	assert.Empty(t, notes)
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/friends", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	h, _ := newTestServer(t)
	do(t, h, http.MethodGet, "/api/friends", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="GET /api/friends"`), rec.Body.String())
	assert.Contains(t, rec.Body.String(), `go_sql_max_open_connections{db_name="kathboard"}`)
}

// failingStore fails every call with a backend error.
type failingStore struct{ Store }

func (failingStore) ListFriends(context.Context, models.FriendFilter) ([]models.Friend, error) {
	return nil, &storage.StorageError{Op: "list friends", Err: errors.New("disk I/O error")}
}

func (failingStore) Ping(context.Context) error {
	return &storage.StorageError{Op: "ping db", Err: errors.New("closed")}
}

func TestStorageFailuresAreHidden(t *testing.T) {
	h := New(failingStore{}, logger.Discard(), nil, nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/friends", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk I/O")

	rec = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
