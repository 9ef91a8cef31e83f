package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "example.com/identity/internal/api/http/context"
	"example.com/identity/internal/testutil"
)

func TestLogging_Handle_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	lg := NewLogging(testutil.MakeNoopLogger())

	var seenID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpctx.RequestID(r.Context())
		require.True(t, ok)
		seenID = id
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	lg.Handle(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/accounts", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, seenID, 26)
	assert.Equal(t, seenID, rec.Header().Get(requestIDHeader))
}

func TestLogging_Handle_PropagatesClientRequestID(t *testing.T) {
	t.Parallel()

	lg := NewLogging(testutil.MakeNoopLogger())

	var seenID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = httpctx.RequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set(requestIDHeader, "client-supplied-id")

	rec := httptest.NewRecorder()
	lg.Handle(next).ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", seenID)
	assert.Equal(t, "client-supplied-id", rec.Header().Get(requestIDHeader))
}

func TestStatusWriter_CapturesFirstStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusWriter_ImplicitOKOnWrite(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := sw.Write([]byte("body"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, sw.status)
	assert.True(t, sw.written)
}
