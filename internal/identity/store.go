package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Store persists one token across sessions under the user_token key.
type Store interface {
	// Load returns the stored token, or false if none is present.
	Load() (string, bool)
	// Save stores token, replacing any previous value.
	Save(token string) error
	// Clear removes the stored token.
	Clear() error
}

// CookieYearTTL is the cookie expiry applied on Save.
const CookieYearTTL = 365 * 24 * time.Hour

// CookieStore is the cookie analog: a file carrying the token together
// with an expiry honored on Load. Expired entries read as absent.
type CookieStore struct {
	Path string
	TTL  time.Duration

	now func() time.Time
}

type cookieRecord struct {
	Token   string    `json:"user_token"`
	Expires time.Time `json:"expires"`
}

// NewCookieStore returns a cookie store at path with the 1-year TTL.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{Path: path, TTL: CookieYearTTL, now: time.Now}
}

func (s *CookieStore) Load() (string, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false
	}
	var rec cookieRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Token == "" {
		return "", false
	}
	if s.now().After(rec.Expires) {
		return "", false
	}
	return rec.Token, true
}

func (s *CookieStore) Save(token string) error {
	rec := cookieRecord{Token: token, Expires: s.now().Add(s.TTL)}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *CookieStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LocalStore is the local-storage analog: a plain file holding only the
// token, with no expiry.
type LocalStore struct {
	Path string
}

// NewLocalStore returns a local store at path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{Path: path}
}

func (s *LocalStore) Load() (string, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (s *LocalStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

func (s *LocalStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
