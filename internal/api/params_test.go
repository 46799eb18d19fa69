package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// requestWithRouteContext builds a request carrying an empty chi route
// context, as the router would before dispatching.
func requestWithRouteContext(t *testing.T) (*http.Request, *chi.Context) {
	t.Helper()

	rctx := chi.NewRouteContext()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	return req, rctx
}

func TestWithIDMissingParam(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	called := false
	handler := WithID(func(w http.ResponseWriter, r *http.Request, id string) {
		called = true
	})

	req, _ := requestWithRouteContext(t)
	w := httptest.NewRecorder()
	handler(w, req)

	require.False(called)
	require.Equal(http.StatusBadRequest, w.Code)
	require.Equal("ID is required", errorMessage(t, w))
}

func TestWithIDPassesParam(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	var got string
	handler := WithID(func(w http.ResponseWriter, r *http.Request, id string) {
		got = id
		w.WriteHeader(http.StatusNoContent)
	})

	req, rctx := requestWithRouteContext(t)
	rctx.URLParams.Add("id", "abc-123")
	w := httptest.NewRecorder()
	handler(w, req)

	require.Equal("abc-123", got)
	require.Equal(http.StatusNoContent, w.Code)
}
