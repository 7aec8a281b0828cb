package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkoutsos/lexroom/internal/protocol"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrOwnershipMismatch = errors.New("session ownership mismatch")
	ErrBusy              = errors.New("session busy")
	ErrLimitExceeded     = errors.New("session limit exceeded")
)

// Session is a snapshot of one live tool-calling conversation. Snapshots are
// copies; mutating one never affects registry state.
type Session struct {
	ID             string          `json:"session_id"`
	Subject        string          `json:"subject"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	Turns          []protocol.Turn `json:"turns"`
}

type state struct {
	sess Session
	busy bool
}

// Registry owns every live session. It is the only mutable shared state in
// the service: all access goes through one short-held mutex, and per-session
// turn processing is serialized with a busy flag so two concurrent requests
// for the same id can never interleave turn writes.
type Registry struct {
	mu                sync.Mutex
	sessions          map[string]*state
	liveBySubject     map[string]int
	maxPerSubject     int
	inactivityTimeout time.Duration
	onExpire          func(Session)
}

func NewRegistry(inactivityTimeout time.Duration, maxPerSubject int) *Registry {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	if maxPerSubject <= 0 {
		maxPerSubject = 1
	}
	return &Registry{
		sessions:          make(map[string]*state),
		liveBySubject:     make(map[string]int),
		maxPerSubject:     maxPerSubject,
		inactivityTimeout: inactivityTimeout,
	}
}

func (r *Registry) SetExpireHook(hook func(Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = hook
}

// Open allocates a new session bound to subject and acquires it for the
// caller's in-flight turn. Release must be called when processing finishes.
func (r *Registry) Open(subject string) (Session, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.liveBySubject[subject] >= r.maxPerSubject {
		return Session{}, ErrLimitExceeded
	}

	st := &state{
		sess: Session{
			ID:             uuid.NewString(),
			Subject:        subject,
			CreatedAt:      now,
			LastActivityAt: now,
		},
		busy: true,
	}
	r.sessions[st.sess.ID] = st
	r.liveBySubject[subject]++
	return snapshot(st), nil
}

// Acquire resumes an existing session for exclusive turn processing. The
// ownership check runs before the busy check so a hijacked id is rejected
// identically whether or not the session is in use.
func (r *Registry) Acquire(id, subject string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if st.sess.Subject != subject {
		return Session{}, ErrOwnershipMismatch
	}
	if st.busy {
		return Session{}, ErrBusy
	}
	st.busy = true
	st.sess.LastActivityAt = time.Now().UTC()
	return snapshot(st), nil
}

// Release clears the busy flag set by Open or Acquire.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[id]; ok {
		st.busy = false
	}
}

// Append commits turns to the session and refreshes its activity time.
func (r *Registry) Append(id string, turns ...protocol.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	st.sess.Turns = append(st.sess.Turns, turns...)
	st.sess.LastActivityAt = time.Now().UTC()
	return nil
}

// Snapshot returns a stable copy of the session for read-only use without
// acquiring it.
func (r *Registry) Snapshot(id, subject string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if st.sess.Subject != subject {
		return Session{}, ErrOwnershipMismatch
	}
	return snapshot(st), nil
}

// End terminates the session regardless of inactivity state. A session with
// an in-flight turn stays serialized: it cannot be ended until released.
func (r *Registry) End(id, subject string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if st.sess.Subject != subject {
		return Session{}, ErrOwnershipMismatch
	}
	if st.busy {
		return Session{}, ErrBusy
	}
	r.remove(st)
	return snapshot(st), nil
}

// ActiveCount reports the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartJanitor sweeps inactive sessions until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.expireInactive()
			}
		}
	}()
}

func (r *Registry) expireInactive() {
	now := time.Now().UTC()
	var expired []Session

	r.mu.Lock()
	for _, st := range r.sessions {
		// A busy session has an in-flight turn; its activity time refreshes
		// on commit, so skip it rather than pull state out from under the
		// request using it.
		if st.busy {
			continue
		}
		if now.Sub(st.sess.LastActivityAt) < r.inactivityTimeout {
			continue
		}
		r.remove(st)
		expired = append(expired, snapshot(st))
	}
	hook := r.onExpire
	r.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

// remove must be called with r.mu held.
func (r *Registry) remove(st *state) {
	delete(r.sessions, st.sess.ID)
	if n := r.liveBySubject[st.sess.Subject]; n <= 1 {
		delete(r.liveBySubject, st.sess.Subject)
	} else {
		r.liveBySubject[st.sess.Subject] = n - 1
	}
}

func snapshot(st *state) Session {
	c := st.sess
	c.Turns = append([]protocol.Turn(nil), st.sess.Turns...)
	return c
}
