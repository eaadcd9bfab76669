package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/iesahq/portal/core/session"
	"github.com/iesahq/portal/storage/inmem"
	testutil "github.com/iesahq/portal/tests"
)

var errBoom = errors.New("boom")

type apiStub struct {
	mu          sync.Mutex
	sessions    map[string]session.Session
	active      string
	listErr     error
	activeErr   error
	getErr      error
	activeCalls int
	getCalls    int
	listCalls   int

	// when set, GetSession blocks until the id's channel is closed
	gates map[string]chan struct{}
}

func newAPIStub(active string, sessions ...session.Session) *apiStub {
	stub := &apiStub{sessions: make(map[string]session.Session), active: active}
	for _, sess := range sessions {
		stub.sessions[sess.ID] = sess
	}
	return stub
}

func (s *apiStub) ListSessions(context.Context) ([]session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	all := make([]session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	return all, nil
}

func (s *apiStub) ActiveSession(context.Context) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCalls++
	if s.activeErr != nil {
		return session.Session{}, s.activeErr
	}
	return s.sessions[s.active], nil
}

func (s *apiStub) GetSession(_ context.Context, id string) (session.Session, error) {
	s.mu.Lock()
	s.getCalls++
	gate := s.gates[id]
	err := s.getErr
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return session.Session{}, err
	}
	if !ok {
		return session.Session{}, errors.New("not found")
	}
	return sess, nil
}

var (
	sess1 = session.Session{ID: "s1", Name: "2023/2024"}
	sess2 = session.Session{ID: "s2", Name: "2024/2025", IsActive: true, CurrentSemester: 1}
)

func newManager(api session.API, store session.Store) *session.Manager {
	return session.NewManager(api, store, testutil.NewLogger())
}

func Test_Manager_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored selection resolves the active session", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		store := inmem.NewPrefStore()
		mgr := newManager(api, store)

		mgr.Init(ctx, "u1")

		assert.False(t, mgr.Loading())
		assert.Empty(t, mgr.Err())
		if assert.NotNil(t, mgr.Current()) {
			assert.Equal(t, "s2", mgr.Current().ID)
		}
		assert.Equal(t, 1, api.activeCalls)
		assert.Len(t, mgr.All(), 2)

		// selection persisted for the next visit
		id, ok := store.Get(ctx, session.PrefKeySelectedSession)
		assert.True(t, ok)
		assert.Equal(t, "s2", id)
	})

	t.Run("stored selection wins over the active session", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		store := inmem.NewPrefStore()
		_ = store.Set(ctx, session.PrefKeySelectedSession, "s1")
		mgr := newManager(api, store)

		mgr.Init(ctx, "u1")

		if assert.NotNil(t, mgr.Current()) {
			assert.Equal(t, "s1", mgr.Current().ID)
		}
		assert.Equal(t, 0, api.activeCalls)
	})

	t.Run("stale stored selection falls back to the active session", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		store := inmem.NewPrefStore()
		_ = store.Set(ctx, session.PrefKeySelectedSession, "gone")
		mgr := newManager(api, store)

		mgr.Init(ctx, "u1")

		assert.Empty(t, mgr.Err()) // a stale id alone is not an error
		if assert.NotNil(t, mgr.Current()) {
			assert.Equal(t, "s2", mgr.Current().ID)
		}
		assert.Len(t, mgr.All(), 2)
	})

	t.Run("no user stays loading", func(t *testing.T) {
		api := newAPIStub("s2", sess2)
		mgr := newManager(api, inmem.NewPrefStore())

		mgr.Init(ctx, "")

		assert.True(t, mgr.Loading())
		assert.Nil(t, mgr.Current())
		assert.Equal(t, 0, api.activeCalls)
	})

	t.Run("resolution failure degrades to an error state", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		api.activeErr = errBoom
		mgr := newManager(api, inmem.NewPrefStore())

		mgr.Init(ctx, "u1")

		assert.False(t, mgr.Loading())
		assert.Nil(t, mgr.Current())
		assert.Equal(t, "could not load the current session", mgr.Err())
		assert.Len(t, mgr.All(), 2) // list still loads
	})

	t.Run("list failure degrades to an error state", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		api.listErr = errBoom
		mgr := newManager(api, inmem.NewPrefStore())

		mgr.Init(ctx, "u1")

		assert.False(t, mgr.Loading())
		assert.NotNil(t, mgr.Current())
		assert.Equal(t, "could not load the session list", mgr.Err())
		assert.Empty(t, mgr.All())
	})
}

func Test_Manager_Switch(t *testing.T) {
	ctx := context.Background()

	t.Run("success repoints and persists", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		store := inmem.NewPrefStore()
		mgr := newManager(api, store)
		mgr.Init(ctx, "u1")

		mgr.Switch(ctx, "s1")

		assert.False(t, mgr.Loading())
		assert.Empty(t, mgr.Err())
		if assert.NotNil(t, mgr.Current()) {
			assert.Equal(t, "s1", mgr.Current().ID)
		}
		id, _ := store.Get(ctx, session.PrefKeySelectedSession)
		assert.Equal(t, "s1", id)
	})

	t.Run("failure keeps the previous session", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		mgr := newManager(api, inmem.NewPrefStore())
		mgr.Init(ctx, "u1")

		mgr.Switch(ctx, "gone")

		assert.Equal(t, "could not switch session", mgr.Err())
		if assert.NotNil(t, mgr.Current()) {
			assert.Equal(t, "s2", mgr.Current().ID)
		}
	})

	t.Run("no-op before a user is known", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		mgr := newManager(api, inmem.NewPrefStore())

		mgr.Switch(ctx, "s1")

		assert.Nil(t, mgr.Current())
		assert.Equal(t, 0, api.getCalls)
	})

	t.Run("a later success clears a previous error", func(t *testing.T) {
		api := newAPIStub("s2", sess1, sess2)
		mgr := newManager(api, inmem.NewPrefStore())
		mgr.Init(ctx, "u1")

		mgr.Switch(ctx, "gone")
		assert.NotEmpty(t, mgr.Err())

		mgr.Switch(ctx, "s1")
		assert.Empty(t, mgr.Err())
		assert.Equal(t, "s1", mgr.Current().ID)
	})
}

func Test_Manager_Refresh(t *testing.T) {
	ctx := context.Background()

	api := newAPIStub("s2", sess2)
	mgr := newManager(api, inmem.NewPrefStore())
	mgr.Init(ctx, "u1")
	assert.Len(t, mgr.All(), 1)

	api.mu.Lock()
	api.sessions["s3"] = session.Session{ID: "s3", Name: "2025/2026"}
	api.mu.Unlock()

	mgr.Refresh(ctx)
	assert.Len(t, mgr.All(), 2)
	assert.False(t, mgr.Loading())
}

func Test_Manager_Dispose(t *testing.T) {
	ctx := context.Background()

	api := newAPIStub("s2", sess1, sess2)
	mgr := newManager(api, inmem.NewPrefStore())
	mgr.Init(ctx, "u1")
	mgr.Dispose()

	getCallsBefore := api.getCalls
	mgr.Switch(ctx, "s1")

	assert.False(t, mgr.Loading())
	assert.Equal(t, getCallsBefore, api.getCalls)
	assert.Equal(t, "s2", mgr.Current().ID)
}

// Overlapping switches are not fenced: whichever fetch completes last wins,
// even if it was issued first.
func Test_Manager_switchRace(t *testing.T) {
	ctx := context.Background()

	sess3 := session.Session{ID: "s3", Name: "2025/2026"}
	api := newAPIStub("s2", sess1, sess2, sess3)
	mgr := newManager(api, inmem.NewPrefStore())
	mgr.Init(ctx, "u1")

	gateS1 := make(chan struct{})
	api.mu.Lock()
	api.gates = map[string]chan struct{}{"s1": gateS1}
	api.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); mgr.Switch(ctx, "s1") }()

	// wait for the s1 fetch to be in flight
	for {
		api.mu.Lock()
		inFlight := api.getCalls > 0
		api.mu.Unlock()
		if inFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// a later switch to s3 completes first...
	mgr.Switch(ctx, "s3")
	assert.Equal(t, "s3", mgr.Current().ID)

	// ...but the stalled s1 fetch lands last and overwrites it
	close(gateS1)
	wg.Wait()

	assert.False(t, mgr.Loading())
	assert.Equal(t, "s1", mgr.Current().ID)
}
