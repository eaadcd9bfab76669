package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/iesahq/portal/core"
)

// PrefKeySelectedSession is the preference key holding the user's last-selected session id.
const PrefKeySelectedSession = "selectedSessionId"

// user-facing error texts; fetch failures degrade to these, they never propagate as panics
const (
	errTextResolve = "could not load the current session"
	errTextList    = "could not load the session list"
	errTextSwitch  = "could not switch session"
)

// Manager mediates "time travel": it resolves and holds the session every
// session-aware read is scoped to, and persists the user's selection.
//
// One Manager serves one authenticated user. After Init returns, exactly one
// of Current() or Err() is authoritative. Fetches run outside the lock, so
// overlapping Switch calls race and the last completion wins; there is no
// request fencing (see Test_Manager_switchRace).
type Manager struct {
	api    API
	store  Store
	logger core.Logger

	mu       sync.Mutex
	userID   string
	current  *Session
	all      []Session
	inflight int
	initRan  bool
	errText  string
	disposed bool
}

func NewManager(api API, store Store, logger core.Logger) *Manager {
	return &Manager{
		api:      api,
		store:    store,
		logger:   logger,
		inflight: 1, // loading until Init completes
	}
}

// Current returns the scope session, or nil while unresolved.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	sess := *m.current
	return &sess
}

func (m *Manager) All() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]Session, len(m.all))
	copy(all, m.all)
	return all
}

// Loading reports whether any initialization or switch is still in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight > 0
}

func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errText
}

// Init runs the initialization protocol for the given user:
// stored-id point lookup, active-session fallback, then the full list fetch.
// It is a no-op while no user is known; call it again once identity resolves.
func (m *Manager) Init(ctx context.Context, userID string) {
	if userID == "" {
		return // identity still loading; stay in the loading state
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.userID = userID
	if m.initRan { // re-run on identity change
		m.inflight++
	} else {
		m.initRan = true // consumes the initial loading slot
	}
	m.mu.Unlock()

	defer m.done()

	current, err := m.resolve(ctx)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("resolving session for user %s: %v", userID, err))
		m.fail(errTextResolve)
	} else {
		m.adopt(ctx, current)
	}

	all, err := m.api.ListSessions(ctx)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("listing sessions for user %s: %v", userID, err))
		m.fail(errTextList)
		return
	}
	m.mu.Lock()
	m.all = all
	m.mu.Unlock()
}

// resolve finds the authoritative session: the stored selection if it still
// exists, else the backend's active session. A stale stored id is not an
// error; it only is if the active-session fallback fails too.
func (m *Manager) resolve(ctx context.Context) (Session, error) {
	if id, ok := m.store.Get(ctx, PrefKeySelectedSession); ok && id != "" {
		if sess, err := m.api.GetSession(ctx, id); err == nil {
			return sess, nil
		}
	}
	return m.api.ActiveSession(ctx)
}

// Switch replaces the scope session with the one identified by id.
// On failure the previous session is left untouched and Err is set.
func (m *Manager) Switch(ctx context.Context, id string) {
	m.mu.Lock()
	if m.userID == "" || m.disposed {
		m.mu.Unlock()
		return
	}
	m.inflight++
	m.mu.Unlock()

	defer m.done()

	sess, err := m.api.GetSession(ctx, id)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("switching to session %s: %v", id, err))
		m.fail(errTextSwitch)
		return
	}
	m.adopt(ctx, sess)
}

// Refresh re-fetches the session list only; used after an external
// session-creation event. Silent no-op without a user.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	if m.userID == "" || m.disposed {
		m.mu.Unlock()
		return
	}
	m.inflight++
	m.mu.Unlock()

	defer m.done()

	all, err := m.api.ListSessions(ctx)
	if err != nil {
		m.logger.Warn(fmt.Sprintf("refreshing sessions: %v", err))
		m.fail(errTextList)
		return
	}
	m.mu.Lock()
	m.all = all
	m.mu.Unlock()
}

// Dispose ends the manager's lifecycle; subsequent operations are no-ops.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.inflight = 0
}

// adopt installs sess as the scope session and persists the selection.
func (m *Manager) adopt(ctx context.Context, sess Session) {
	m.mu.Lock()
	m.current = &sess
	m.errText = ""
	m.mu.Unlock()

	if err := m.store.Set(ctx, PrefKeySelectedSession, sess.ID); err != nil {
		// non-fatal: the selection just won't survive the next visit
		m.logger.Warn(fmt.Sprintf("persisting session selection %s: %v", sess.ID, err))
	}
}

func (m *Manager) fail(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errText = text
}

func (m *Manager) done() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight > 0 {
		m.inflight--
	}
}
