package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/identity/internal/testutil"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestFloodGate_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	gate := NewFloodGate(1, 2, testutil.MakeNoopLogger())
	h := gate.Handle(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limited"}`, rec.Body.String())
}

func TestFloodGate_SeparatesClients(t *testing.T) {
	t.Parallel()

	gate := NewFloodGate(1, 1, testutil.MakeNoopLogger())
	h := gate.Handle(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	first.RemoteAddr = "10.0.0.1:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	blocked := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	blocked.RemoteAddr = "10.0.0.1:4321"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, blocked)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	other.RemoteAddr = "10.0.0.2:4321"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFloodGate_PrunesIdleClients(t *testing.T) {
	t.Parallel()

	gate := NewFloodGate(1, 1, testutil.MakeNoopLogger())

	gate.mu.Lock()
	gate.visitors["10.0.0.1"] = &visitor{
		limiter:  rate.NewLimiter(gate.rate, gate.burst),
		lastSeen: time.Now().Add(-2 * visitorTTL),
	}
	gate.visitors["10.0.0.2"] = &visitor{
		limiter:  rate.NewLimiter(gate.rate, gate.burst),
		lastSeen: time.Now(),
	}
	gate.mu.Unlock()

	gate.prune()

	gate.mu.Lock()
	defer gate.mu.Unlock()
	assert.NotContains(t, gate.visitors, "10.0.0.1")
	assert.Contains(t, gate.visitors, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "remote addr host",
			remoteAddr: "10.0.0.1:4321",
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
		{
			name:       "forwarded single",
			remoteAddr: "10.0.0.1:4321",
			forwarded:  "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded chain takes first hop",
			remoteAddr: "10.0.0.1:4321",
			forwarded:  "203.0.113.7, 198.51.100.2",
			want:       "203.0.113.7",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
