package verifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func statusServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"ignored"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPVerifierStatusPartition(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		outcome Outcome
		reason  DenyReason
	}{
		{"ok", http.StatusOK, Confirmed, 0},
		{"no content", http.StatusNoContent, Confirmed, 0},
		{"unauthorized", http.StatusUnauthorized, Denied, Unauthorized},
		{"forbidden", http.StatusForbidden, Denied, Forbidden},
		{"not found", http.StatusNotFound, TransportFailure, 0},
		{"server error", http.StatusInternalServerError, TransportFailure, 0},
		{"bad gateway", http.StatusBadGateway, TransportFailure, 0},
		{"redirect", http.StatusFound, TransportFailure, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := statusServer(t, tt.status)

			res := NewHTTPVerifier(srv.URL + "/api/verify-session").Verify(context.Background())

			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.reason, res.Reason)
			switch tt.outcome {
			case Confirmed:
				require.NotNil(t, res.Session)
				assert.Equal(t, tt.status, res.Session.Status())
				assert.False(t, res.Session.VerifiedAt().IsZero())
				assert.NoError(t, res.Err)
			case TransportFailure:
				assert.Nil(t, res.Session)
				var se *StatusError
				require.ErrorAs(t, res.Err, &se)
				assert.Equal(t, tt.status, se.Status)
			default:
				assert.Nil(t, res.Session)
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestHTTPVerifierForwardsAmbientCookies(t *testing.T) {
	var got []*http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Cookies()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/verify-session", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL+"/api/verify-session", WithoutCookies("portal_device"))
	ctx := WithCookies(context.Background(), []*http.Cookie{
		{Name: "connect.sid", Value: "s%3Aabc"},
		{Name: "portal_device", Value: "dev"},
	})

	res := v.Verify(ctx)
	require.Equal(t, Confirmed, res.Outcome)
	require.Len(t, got, 1)
	assert.Equal(t, "connect.sid", got[0].Name)
	assert.Equal(t, "s%3Aabc", got[0].Value)
}

func TestHTTPVerifierTransportFailures(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		res := NewHTTPVerifier(srv.URL, WithTimeout(50*time.Millisecond)).Verify(context.Background())
		assert.Equal(t, TransportFailure, res.Outcome)
		assert.Error(t, res.Err)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := NewHTTPVerifier(url).Verify(context.Background())
		assert.Equal(t, TransportFailure, res.Outcome)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := statusServer(t, http.StatusOK)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := NewHTTPVerifier(srv.URL).Verify(ctx)
		assert.Equal(t, TransportFailure, res.Outcome)
		assert.True(t, errors.Is(res.Err, context.Canceled))
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		res := NewHTTPVerifier("://nope").Verify(context.Background())
		assert.Equal(t, TransportFailure, res.Outcome)
	})
}

func TestHTTPVerifierTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	srv := statusServer(t, http.StatusUnauthorized)
	NewHTTPVerifier(srv.URL, WithTracer(tp.Tracer("test"))).Verify(context.Background())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "verifier.Verify", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("verifier.outcome", "denied"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusUnauthorized))
}
