package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestPostRetriesOn500(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(&ClientConfig{BaseURL: srv.URL, MaxRetries: 3, RateLimit: 1000, RateBurst: 100})
	resp, err := c.Post(context.Background(), "/v1/test", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := resp.JSON(&out); err != nil || !out.OK {
		t.Fatalf("unexpected response: %s err=%v", resp.Body, err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("server called %d times, want 3", got)
	}
}

func TestPostDoesNotRetryOn400(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(&ClientConfig{BaseURL: srv.URL, MaxRetries: 3, RateLimit: 1000, RateBurst: 100})
	_, err := c.Post(context.Background(), "/v1/test", nil)
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected HTTPError 400, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("server called %d times, want 1", got)
	}
}

func TestHeadersApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(&ClientConfig{
		BaseURL:   srv.URL,
		Headers:   map[string]string{"Authorization": "Bearer sk-test"},
		RateLimit: 1000,
		RateBurst: 100,
	})
	resp, err := c.Get(context.Background(), "/", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.IsSuccess() {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
