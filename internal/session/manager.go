package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName is the cookie carrying the session id.
const CookieName = "fee_session"

// Manager hands out sessions by id, restoring them from its Store when
// they are not in memory.
type Manager struct {
	backend Backend
	opts    Options
	store   Store
	log     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A nil store keeps sessions in memory only.
func NewManager(backend Backend, store Store, opts Options) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		backend:  backend,
		opts:     opts,
		store:    store,
		log:      log.Named("session"),
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id, restoring it from the store if it
// was evicted. Unknown or malformed ids get a fresh session with a new id.
func (m *Manager) Get(ctx context.Context, id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		id = ""
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok && id != "" {
		m.mu.Unlock()
		s.Touch()
		return s
	}
	m.mu.Unlock()

	if id != "" {
		snap, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			s := New(id, m.backend, m.opts)
			s.Restore(*snap)
			return m.adopt(s)
		case !errors.Is(err, ErrNotFound):
			m.log.Warn("failed to restore session", zap.String("id", id), zap.Error(err))
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	return m.adopt(New(id, m.backend, m.opts))
}

// adopt registers s unless another request registered the same id first.
func (m *Manager) adopt(s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[s.ID]; ok {
		return existing
	}
	m.sessions[s.ID] = s
	return s
}

// FromRequest returns the session named by the request cookie and
// (re)sets the cookie on w.
func (m *Manager) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	s := m.Get(r.Context(), id)
	if s.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s
}

// Save persists s.
func (m *Manager) Save(ctx context.Context, s *Session) {
	if err := m.store.Save(ctx, s.ID, s.Snapshot()); err != nil {
		m.log.Error("failed to save session", zap.String("id", s.ID), zap.Error(err))
	}
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep saves and evicts sessions idle for longer than maxIdle, and
// prunes stored snapshots older than keep.
func (m *Manager) Sweep(ctx context.Context, maxIdle, keep time.Duration) {
	now := time.Now()

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.IdleFor(now) > maxIdle {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.Save(ctx, s)
	}
	if keep > 0 {
		n, err := m.store.Prune(ctx, now.Add(-keep))
		if err != nil {
			m.log.Warn("failed to prune sessions", zap.Error(err))
		} else if n > 0 {
			m.log.Info("pruned sessions", zap.Int("count", n))
		}
	}
	if len(idle) > 0 {
		m.log.Debug("evicted idle sessions", zap.Int("count", len(idle)))
	}
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle, keep time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx, maxIdle, keep)
		}
	}
}
