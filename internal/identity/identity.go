// Package identity resolves, validates and provisions the pseudonymous
// session token through the identity collaborator.
package identity

import (
	"context"
	"sync"

	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/transport"
	"github.com/decktrace/decktrace/internal/util/logger"
)

// State is the token resolution state.
type State int

const (
	// Unresolved means Load has not run yet.
	Unresolved State = iota
	// Anonymous means the session carries no token.
	Anonymous
	// Pending means a stored token was rejected and reissue is due.
	Pending
	// Valid means the session carries a server-confirmed token.
	Valid
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Pending:
		return "pending"
	case Valid:
		return "valid"
	default:
		return "unresolved"
	}
}

// Manager drives the token state machine. Identity requests are never
// concurrent with each other: Load runs validate to completion before
// Issue is ever attempted.
type Manager struct {
	mu    sync.Mutex
	state State
	token string

	cookie Store
	local  Store
	client *transport.Client

	validateURL string
	issueURL    string
}

// NewManager wires the manager to its endpoints, persistence and the
// shared retrying client.
func NewManager(endpoints config.IdentityEndpoints, cookie, local Store, client *transport.Client) *Manager {
	return &Manager{
		cookie:      cookie,
		local:       local,
		client:      client,
		validateURL: endpoints.ValidateEndpoint,
		issueURL:    endpoints.IssueEndpoint,
	}
}

// State returns the current resolution state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the session token. ok is true only in the Valid state;
// teardown racing an in-flight resolution simply sees ok == false.
func (m *Manager) Token() (token string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Valid {
		return "", false
	}
	return m.token, true
}

// Load resolves the token from the persistent stores (cookie takes
// precedence) and validates it against the collaborator. A rejected or
// unverifiable token moves through Pending into a reissue attempt.
// Without a stored token the session stays Anonymous; the consent
// banner decides whether one gets issued.
func (m *Manager) Load(ctx context.Context) State {
	token, found := m.loadStored()
	if !found {
		m.setState(Anonymous, "")
		return Anonymous
	}

	if m.validate(ctx, token) {
		m.setState(Valid, token)
		return Valid
	}

	m.setState(Pending, token)
	return m.Issue(ctx)
}

// Issue requests a fresh token from the issuance endpoint and persists
// it in both stores. Absence of the endpoint or a network failure
// clears any stored token and degrades the session to Anonymous.
func (m *Manager) Issue(ctx context.Context) State {
	if m.issueURL == "" {
		m.clearStores()
		m.setState(Anonymous, "")
		return Anonymous
	}

	var resp struct {
		UserToken string `json:"user_token"`
	}
	if err := m.client.PostJSON(ctx, m.issueURL, nil, &resp); err != nil {
		logger.Warnf("identity: token issuance failed: %v", err)
		m.clearStores()
		m.setState(Anonymous, "")
		return Anonymous
	}

	if err := m.cookie.Save(resp.UserToken); err != nil {
		logger.Warnf("identity: persisting token cookie failed: %v", err)
	}
	if err := m.local.Save(resp.UserToken); err != nil {
		logger.Warnf("identity: persisting token failed: %v", err)
	}

	m.setState(Valid, resp.UserToken)
	return Valid
}

// loadStored reads the persisted token, cookie first.
func (m *Manager) loadStored() (string, bool) {
	if token, ok := m.cookie.Load(); ok {
		return token, true
	}
	return m.local.Load()
}

// validate checks the stored token against the validation endpoint.
// Without a configured endpoint the token is treated as valid.
func (m *Manager) validate(ctx context.Context, token string) bool {
	if m.validateURL == "" {
		return true
	}

	var resp struct {
		Valid bool `json:"valid"`
	}
	req := map[string]string{"user_token": token}
	if err := m.client.PostJSON(ctx, m.validateURL, req, &resp); err != nil {
		logger.Warnf("identity: token validation failed: %v", err)
		return false
	}
	return resp.Valid
}

func (m *Manager) clearStores() {
	if err := m.cookie.Clear(); err != nil {
		logger.Warnf("identity: clearing token cookie failed: %v", err)
	}
	if err := m.local.Clear(); err != nil {
		logger.Warnf("identity: clearing token failed: %v", err)
	}
}

func (m *Manager) setState(s State, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.token = token
	logger.Debugf("identity: state %s", s)
}
