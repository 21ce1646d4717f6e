package session

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry is the process-wide mapping from call identifier to session.
// Sessions are inserted on stream start and removed at teardown; concurrent
// calls use disjoint keys. The registry reads sessions for monitoring but
// never mutates them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*CallSession),
		logger:   logger,
	}
}

// Register publishes a session under its call identifier. The session must
// have its identifiers set (Begin called) before registration.
func (r *Registry) Register(s *CallSession) error {
	if s.CallID == "" {
		return fmt.Errorf("cannot register session without call id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.CallID]; exists {
		return fmt.Errorf("session for call %s already registered", s.CallID)
	}
	r.sessions[s.CallID] = s

	r.logger.Info("session registered",
		slog.String("call_id", s.CallID),
		slog.String("stream_sid", s.StreamID),
		slog.Int("active_sessions", len(r.sessions)),
	)
	return nil
}

// Get retrieves the session for a call identifier.
func (r *Registry) Get(callID string) (*CallSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[callID]
	return s, ok
}

// Remove deletes the session for a call identifier and reports whether it
// was present.
func (r *Registry) Remove(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[callID]
	if !ok {
		return false
	}
	delete(r.sessions, callID)

	r.logger.Info("session removed",
		slog.String("call_id", callID),
		slog.Duration("duration", s.Duration()),
		slog.Int("active_sessions", len(r.sessions)),
	)
	return true
}

// ActiveCount returns the number of registered sessions.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns monitoring info for all registered sessions.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}
