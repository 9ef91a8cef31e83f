package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/identity/internal/model"
	"example.com/identity/internal/ratelimit"
	"example.com/identity/internal/repository/memory"
	"example.com/identity/internal/service"
	"example.com/identity/internal/testutil"
	"example.com/identity/internal/token"
)

func newTestRouter(t *testing.T) (*mux.Router, *service.Identity) {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	issuer := token.NewJWT("test-secret", "i5e.identity", time.Hour)
	svc := service.NewIdentity(
		memory.NewAccountRepository(),
		memory.NewRefreshTokenRepository(),
		memory.NewAuditLogRepository(),
		issuer,
		30*24*time.Hour,
		lg,
	)
	limiter := ratelimit.NewLocal(ratelimit.Config{Requests: 1000, Window: time.Minute})

	return New(svc, issuer, limiter, lg).Register(), svc
}

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	m, _ := newTestRouter(t)
	require.NotNil(t, m)
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	m, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	m, _ := newTestRouter(t)

	// A routed request first, so the request counter has a sample.
	warmup := httptest.NewRecorder()
	m.ServeHTTP(warmup, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, warmup.Code)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "identity_service_http_requests_total")
}

func TestRouter_RoutesAccountLifecycle(t *testing.T) {
	t.Parallel()

	m, svc := newTestRouter(t)

	body := strings.NewReader(`{"tenant_id":"tenant-a","email":"user@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	account, _, err := svc.CreateAccount(context.Background(), model.CreateAccountParams{
		TenantID: "tenant-a",
		Email:    "second@example.com",
	})
	require.NoError(t, err)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/accounts/"+account.ID.String(), nil)
	getReq.Header.Set("X-Tenant-ID", "tenant-a")

	getRec := httptest.NewRecorder()
	m.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Contains(t, getRec.Body.String(), account.ID.String())
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	m, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	m, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/token", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
