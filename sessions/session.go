package sessions

import (
	"sync"

	"github.com/jrsteele09/go-storefront-client/users"
)

// Session is the signed-in state of the application: who the user is and the
// bearer credential issued for them. Both are nil/empty when signed out.
type Session struct {
	User       *users.Identity
	Credential string
}

// Store owns the application session. It starts empty, is populated by a
// login or a startup renewal, and is cleared by a logout or a failed
// renewal. The request gateway reads it and reports renewals and
// invalidations back through Login and Logout.
type Store struct {
	lock      sync.RWMutex
	user      *users.Identity
	token     string
	listeners map[int]func(Session)
	nextID    int
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]func(Session))}
}

// Login installs a new session.
func (s *Store) Login(identity users.Identity, credential string) {
	s.lock.Lock()
	s.user = &identity
	s.token = credential
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.lock.Unlock()

	notify(listeners, snapshot)
}

// Logout clears the session.
func (s *Store) Logout() {
	s.lock.Lock()
	s.user = nil
	s.token = ""
	listeners := s.listenersLocked()
	s.lock.Unlock()

	notify(listeners, Session{})
}

// Identity returns a copy of the current user, or nil when signed out.
func (s *Store) Identity() *users.Identity {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.user == nil {
		return nil
	}
	identity := *s.user
	return &identity
}

func (s *Store) Credential() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Store) Snapshot() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshotLocked()
}

// OnChange registers fn to run after every Login and Logout. Listeners run
// outside the store lock, so they may read the store again. The returned
// function unregisters fn.
func (s *Store) OnChange(fn func(Session)) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) snapshotLocked() Session {
	snapshot := Session{Credential: s.token}
	if s.user != nil {
		identity := *s.user
		snapshot.User = &identity
	}
	return snapshot
}

func (s *Store) listenersLocked() []func(Session) {
	listeners := make([]func(Session), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	return listeners
}

func notify(listeners []func(Session), snapshot Session) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
