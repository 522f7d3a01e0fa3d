package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := New(nil, Deps{Logger: zerolog.Nop(), SHA: "abc123"})
	rec := do(s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"git_sha":"abc123"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestStoreNotReadyIsServiceUnavailable(t *testing.T) {
	s := New(nil, Deps{Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/packages").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/listings").Code)
}

func TestAdminRoutesNeedAuth(t *testing.T) {
	s := New(nil, Deps{Logger: zerolog.Nop()})
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/admin/payment-orders").Code)
}
