package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(time.Duration) {}

func TestExecuteRetriesUpToBudget(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).SetSleep(noSleep)
	_, err := c.Execute(context.Background(), http.MethodGet, "/ping", nil)
	require.Error(t, err)
	assert.Equal(t, DefaultAttempts, attempts, "must use exactly the attempt budget, no more")
}

func TestExecuteStopsRetryingOnSuccess(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).SetSleep(noSleep)
	resp, err := c.Execute(context.Background(), http.MethodGet, "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, resp.IsSuccess())
}

func TestExecuteDoesNotRetryStructuredFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"You can only claim once per day"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).SetSleep(noSleep)
	resp, err := c.Execute(context.Background(), http.MethodGet, "/claim", nil)
	require.NoError(t, err, "structured application failures are returned, not retried")
	assert.Equal(t, 1, attempts)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
}

func TestCallHeadersOverrideBaseline(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).SetSleep(noSleep)
	_, err := c.Execute(context.Background(), http.MethodGet, "/me", &RequestOptions{
		Headers: map[string]string{
			"Cookie":     "access_token=tok123",
			"User-Agent": "custom-agent",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "access_token=tok123", gotCookie)
	assert.Equal(t, "custom-agent", gotUA, "call-specific headers take precedence on collision")
}

func TestOriginAndRefererSpoofing(t *testing.T) {
	var gotOrigin, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrigin = r.Header.Get("Origin")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).SetOrigin("https://app.example.io").SetSleep(noSleep)
	_, err := c.Execute(context.Background(), http.MethodGet, "/me", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.io", gotOrigin)
	assert.Equal(t, "https://app.example.io/", gotReferer)
}

func TestInvalidProxyURI(t *testing.T) {
	c := NewClient("http://localhost:1").SetSleep(noSleep)
	_, err := c.Execute(context.Background(), http.MethodGet, "/", &RequestOptions{
		Proxy: "://not-a-uri",
	})
	assert.Error(t, err)
}
