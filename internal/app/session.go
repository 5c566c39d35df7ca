package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixbrock/dockflow/internal/domain"
	"github.com/felixbrock/dockflow/internal/workflow"
)

// Session owns one workflow. Handlers for the same session may run
// concurrently, so every access to wf goes through mu. lastSeen is guarded
// by the store's lock instead.
type Session struct {
	Id string

	mu       sync.Mutex
	wf       *workflow.Workflow
	lastSeen time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// cancelPending aborts the in-flight resolution, if any. Callers hold mu.
func (s *Session) cancelPending() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Await blocks until the most recently started resolution has settled.
func (s *Session) Await(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stage reports the current stage under the session lock.
func (s *Session) Stage() domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wf.Stage()
}

type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	ttl        time.Duration
	candidates []domain.Candidate
}

func NewSessionStore(candidates []domain.Candidate, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		candidates: candidates,
	}
}

func (s *SessionStore) Create(now time.Time) *Session {
	sess := &Session{
		Id:       uuid.New().String(),
		wf:       workflow.New(s.candidates),
		lastSeen: now,
	}

	s.mu.Lock()
	s.sessions[sess.Id] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the live session for id and refreshes its idle timer. Unknown
// and expired ids yield domain.ErrNoSession.
func (s *SessionStore) Get(id string, now time.Time) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNoSession)
	}
	if s.ttl > 0 && now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, fmt.Errorf("session %q expired: %w", id, domain.ErrNoSession)
	}
	sess.lastSeen = now
	return sess, nil
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the ttl and cancels their
// pending resolutions.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.mu.Lock()
		sess.cancelPending()
		sess.mu.Unlock()
	}

	return len(expired)
}
