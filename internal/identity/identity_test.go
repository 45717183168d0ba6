package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/transport"
)

func newStores(t *testing.T) (*CookieStore, *LocalStore) {
	t.Helper()
	dir := t.TempDir()
	return NewCookieStore(filepath.Join(dir, "user_token.cookie")),
		NewLocalStore(filepath.Join(dir, "user_token"))
}

func identityServer(t *testing.T, validTokens map[string]bool, issued string, issueFails bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserToken string `json:"user_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": validTokens[req.UserToken]})
	})
	mux.HandleFunc("/issue", func(w http.ResponseWriter, r *http.Request) {
		if issueFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"user_token": issued})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadWithoutStoredTokenIsAnonymous(t *testing.T) {
	cookie, local := newStores(t)
	srv := identityServer(t, nil, "fresh", false)

	m := NewManager(config.IdentityEndpoints{
		ValidateEndpoint: srv.URL + "/validate",
		IssueEndpoint:    srv.URL + "/issue",
	}, cookie, local, transport.NewClient(srv.Client()))

	if got := m.Load(context.Background()); got != Anonymous {
		t.Fatalf("state: got %v, want Anonymous", got)
	}
	if _, ok := m.Token(); ok {
		t.Fatal("anonymous session must not expose a token")
	}
}

func TestLoadValidStoredToken(t *testing.T) {
	cookie, local := newStores(t)
	if err := local.Save("stored-token"); err != nil {
		t.Fatal(err)
	}
	srv := identityServer(t, map[string]bool{"stored-token": true}, "", false)

	m := NewManager(config.IdentityEndpoints{
		ValidateEndpoint: srv.URL + "/validate",
		IssueEndpoint:    srv.URL + "/issue",
	}, cookie, local, transport.NewClient(srv.Client()))

	if got := m.Load(context.Background()); got != Valid {
		t.Fatalf("state: got %v, want Valid", got)
	}
	token, ok := m.Token()
	if !ok || token != "stored-token" {
		t.Fatalf("token: got %q/%v", token, ok)
	}
}

func TestRejectedTokenIsReissued(t *testing.T) {
	cookie, local := newStores(t)
	if err := local.Save("stale"); err != nil {
		t.Fatal(err)
	}
	srv := identityServer(t, map[string]bool{}, "fresh-token", false)

	m := NewManager(config.IdentityEndpoints{
		ValidateEndpoint: srv.URL + "/validate",
		IssueEndpoint:    srv.URL + "/issue",
	}, cookie, local, transport.NewClient(srv.Client()))

	if got := m.Load(context.Background()); got != Valid {
		t.Fatalf("state: got %v, want Valid after reissue", got)
	}
	token, _ := m.Token()
	if token != "fresh-token" {
		t.Fatalf("token: got %q, want fresh-token", token)
	}

	// The fresh token must be persisted in both stores.
	if got, ok := cookie.Load(); !ok || got != "fresh-token" {
		t.Errorf("cookie store: got %q/%v", got, ok)
	}
	if got, ok := local.Load(); !ok || got != "fresh-token" {
		t.Errorf("local store: got %q/%v", got, ok)
	}
}

func TestIssueFailureClearsStoresAndDegrades(t *testing.T) {
	cookie, local := newStores(t)
	if err := cookie.Save("stale"); err != nil {
		t.Fatal(err)
	}
	if err := local.Save("stale"); err != nil {
		t.Fatal(err)
	}
	srv := identityServer(t, map[string]bool{}, "", true)

	m := NewManager(config.IdentityEndpoints{
		ValidateEndpoint: srv.URL + "/validate",
		IssueEndpoint:    srv.URL + "/issue",
	}, cookie, local, transport.NewClient(srv.Client()))

	if got := m.Load(context.Background()); got != Anonymous {
		t.Fatalf("state: got %v, want Anonymous", got)
	}
	if _, ok := cookie.Load(); ok {
		t.Error("cookie store not cleared")
	}
	if _, ok := local.Load(); ok {
		t.Error("local store not cleared")
	}
}

func TestNoIssueEndpointDegradesToAnonymous(t *testing.T) {
	cookie, local := newStores(t)
	if err := local.Save("stale"); err != nil {
		t.Fatal(err)
	}
	srv := identityServer(t, map[string]bool{}, "", false)

	m := NewManager(config.IdentityEndpoints{
		ValidateEndpoint: srv.URL + "/validate",
	}, cookie, local, transport.NewClient(srv.Client()))

	if got := m.Load(context.Background()); got != Anonymous {
		t.Fatalf("state: got %v, want Anonymous", got)
	}
}

func TestNoValidateEndpointTreatsStoredTokenAsValid(t *testing.T) {
	cookie, local := newStores(t)
	if err := local.Save("unverified"); err != nil {
		t.Fatal(err)
	}

	m := NewManager(config.IdentityEndpoints{
		IssueEndpoint: "http://unused/issue",
	}, cookie, local, transport.NewClient(nil))

	if got := m.Load(context.Background()); got != Valid {
		t.Fatalf("state: got %v, want Valid", got)
	}
}

func TestCookieTakesPrecedenceOverLocalStore(t *testing.T) {
	cookie, local := newStores(t)
	if err := cookie.Save("from-cookie"); err != nil {
		t.Fatal(err)
	}
	if err := local.Save("from-local"); err != nil {
		t.Fatal(err)
	}

	m := NewManager(config.IdentityEndpoints{IssueEndpoint: "http://unused"}, cookie, local, transport.NewClient(nil))
	if got := m.Load(context.Background()); got != Valid {
		t.Fatalf("state: got %v, want Valid", got)
	}
	token, _ := m.Token()
	if token != "from-cookie" {
		t.Fatalf("token: got %q, want from-cookie", token)
	}
}

func TestExpiredCookieReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	cookie := NewCookieStore(filepath.Join(dir, "user_token.cookie"))
	cookie.now = func() time.Time { return time.Now().Add(-2 * CookieYearTTL) }
	if err := cookie.Save("old"); err != nil {
		t.Fatal(err)
	}
	cookie.now = time.Now

	if _, ok := cookie.Load(); ok {
		t.Fatal("expired cookie must read as absent")
	}
}

func TestCookieSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_token.cookie")
	if err := NewCookieStore(path).Save("persisted"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cookie file missing: %v", err)
	}
	got, ok := NewCookieStore(path).Load()
	if !ok || got != "persisted" {
		t.Fatalf("reload: got %q/%v", got, ok)
	}
}
