package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	client := NewClient(srv.Client())
	if err := client.PostJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("expected success on 3rd attempt, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("got %d calls, want 3", got)
	}
	if !out.OK {
		t.Fatalf("response not decoded")
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	err := client.PostJSON(context.Background(), srv.URL, map[string]string{"user_token": "x"}, nil)

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("got %v, want *NetworkError", err)
	}
	if netErr.Attempts != DefaultMaxAttempts {
		t.Fatalf("error reports %d attempts, want %d", netErr.Attempts, DefaultMaxAttempts)
	}
	if got := atomic.LoadInt32(&calls); got != DefaultMaxAttempts {
		t.Fatalf("got %d calls, want exactly %d", got, DefaultMaxAttempts)
	}
}

func TestRetryRepostsIdenticalBody(t *testing.T) {
	bodies := make(chan string, DefaultMaxAttempts)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		bodies <- string(buf[:n])
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	_ = client.PostJSON(context.Background(), srv.URL, map[string]string{"user_token": "tok"}, nil)
	close(bodies)

	var first string
	for body := range bodies {
		if first == "" {
			first = body
			continue
		}
		if body != first {
			t.Fatalf("retried body differs: %q vs %q", body, first)
		}
	}
	if first == "" {
		t.Fatal("no request bodies captured")
	}
}
