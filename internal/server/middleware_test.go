package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_requireAuth(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := newTestServer(t)
	tok, user := ts.register("alice@example.com", "pw123456", "patient")

	handler := ts.srv.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(user.ID, userFrom(r.Context()).ID)
		w.WriteHeader(http.StatusOK)
	}))

	// No header
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Wrong scheme
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic "+tok)
	handler.ServeHTTP(rec, req)
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Garbage token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	require.Equal(http.StatusUnauthorized, rec.Code)

	// Valid token reaches the handler with the user in context
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)
}

func Test_requireAdmin(t *testing.T) {
	assert := assert.New(t)

	ts := newTestServer(t)
	patientTok, _ := ts.register("patient@example.com", "pw123456", "patient")
	adminTok, _ := ts.register("root@example.com", "pw123456", "admin")

	resp := ts.get(patientTok, "/api/admin/users")
	assert.Equal(http.StatusForbidden, resp.StatusCode)
	assert.Equal("Admin access required", detail(t, resp))

	resp = ts.get(adminTok, "/api/admin/users")
	assert.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
