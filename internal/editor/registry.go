package editor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

// DefaultSessionTTL is how long an untouched session is kept before eviction.
const DefaultSessionTTL = 2 * time.Hour

type key struct {
	client string
	quizID string
}

type entry struct {
	mu       sync.Mutex
	sess     *Session
	lastUsed time.Time
}

// Registry holds the open edit sessions of every browser, keyed by client id
// and quiz id. Each session is only ever touched under its own lock, so a
// session keeps the single-owner model even when requests overlap.
type Registry struct {
	mu      sync.Mutex
	entries map[key]*entry
	policy  model.EditConflictPolicy
	ttl     time.Duration
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(policy model.EditConflictPolicy, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		entries: make(map[key]*entry),
		policy:  policy,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Open starts a fresh session for quiz, replacing any previous session the
// client had for the same quiz.
func (r *Registry) Open(client string, quiz *model.Quiz) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{client, quiz.ID}] = &entry{sess: New(quiz, r.policy), lastUsed: r.now()}
	slog.Debug("opened edit session", "client", client, "quiz_id", quiz.ID)
}

// OpenIfAbsent starts a session for quiz unless the client already has one
// for the same quiz. It reports whether a session was created.
func (r *Registry) OpenIfAbsent(client string, quiz *model.Quiz) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{client, quiz.ID}
	if _, ok := r.entries[k]; ok {
		return false
	}
	r.entries[k] = &entry{sess: New(quiz, r.policy), lastUsed: r.now()}
	return true
}

// Has reports whether the client has an open session for quizID.
func (r *Registry) Has(client, quizID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key{client, quizID}]
	return ok
}

// With runs fn with exclusive access to the client's session for quizID.
// It reports false if no such session exists.
func (r *Registry) With(client, quizID string, fn func(s *Session) error) (bool, error) {
	r.mu.Lock()
	e, ok := r.entries[key{client, quizID}]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return true, fn(e.sess)
}

// Close discards the client's session for quizID along with any unsaved draft.
func (r *Registry) Close(client, quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key{client, quizID})
}

// Evict removes sessions idle for longer than the registry TTL and returns
// how many were removed.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(r.entries, k)
			n++
		}
	}
	if n > 0 {
		slog.Info("evicted idle edit sessions", "count", n)
	}
	return n
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
