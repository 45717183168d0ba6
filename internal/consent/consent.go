// Package consent gates all data transmission behind an explicit user
// decision and owns the consent banner lifecycle.
package consent

import (
	"sync"

	"github.com/decktrace/decktrace/internal/config"
	"github.com/decktrace/decktrace/internal/util/logger"
)

// Actions are the three interactive affordances of the consent banner.
type Actions struct {
	// Accept records consent and may trigger token issuance.
	Accept func()
	// Close dismisses the banner; consent stays withheld and the user
	// is not prompted again this session.
	Close func()
	// More opens the informational link. No state change.
	More func()
}

// Presenter renders the consent banner in whatever surface the host
// provides. Implementations call at most one of the action callbacks.
type Presenter interface {
	Show(banner config.Banner, actions Actions)
}

// Manager holds the session's consent flag. The flag changes only
// through explicit user action or the host's programmatic calls.
type Manager struct {
	mu       sync.Mutex
	given    bool
	prompted bool
}

// NewManager returns a manager with consent withheld.
func NewManager() *Manager {
	return &Manager{}
}

// Given reports whether the user has consented to transmission.
func (m *Manager) Given() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.given
}

// Give records consent, as from a returning user whose token is already
// valid or a host-side opt-in.
func (m *Manager) Give() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.given = true
}

// Revoke withdraws consent. Transmission is suppressed from this point
// even if a report was fully assembled.
func (m *Manager) Revoke() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.given = false
}

// ShowBanner renders the banner through p unless it is disabled or was
// already shown this session. onAccept runs after consent is recorded,
// giving the engine its hook for token issuance.
func (m *Manager) ShowBanner(p Presenter, banner config.Banner, onAccept func()) {
	if p == nil || !banner.Enabled {
		return
	}

	m.mu.Lock()
	if m.prompted {
		m.mu.Unlock()
		return
	}
	m.prompted = true
	m.mu.Unlock()

	p.Show(banner, Actions{
		Accept: func() {
			m.Give()
			if onAccept != nil {
				onAccept()
			}
		},
		Close: func() {
			m.Revoke()
			logger.Debugf("consent: banner dismissed")
		},
		More: func() {},
	})
}
