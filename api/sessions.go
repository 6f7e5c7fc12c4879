package api

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
	"github.com/tidepool-org/medical-data/medicaldata"
	"go.uber.org/zap"
)

// Session wraps one viewing session's aggregation engine behind a mutex. The
// engine itself is single-threaded; the wrapper serializes HTTP access.
type Session struct {
	ID string

	mu      sync.Mutex
	service *medicaldata.Service
}

// With runs fn while holding the session lock.
func (s *Session) With(fn func(service *medicaldata.Service) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.service)
}

// SessionManager keeps the in-memory registry of active viewing sessions.
// Sessions hold no persistent state; a session lost with the process is
// simply re-created by reloading the patient record.
type SessionManager struct {
	log      *zap.SugaredLogger
	defaults config.Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(cfg *config.Config, log *zap.SugaredLogger) *SessionManager {
	return &SessionManager{
		log:      log,
		defaults: cfg.DefaultOptions(),
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Create(opts config.Options) *Session {
	session := &Session{
		ID:      uuid.NewString(),
		service: medicaldata.NewService(opts, m.log),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return session
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, errors.Detailed(errors.NotFound, "session %q", id)
	}
	return session, nil
}

func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.Detailed(errors.NotFound, "session %q", id)
	}
	delete(m.sessions, id)
	return nil
}

// DefaultOptions returns the service-wide option defaults new sessions start
// from.
func (m *SessionManager) DefaultOptions() config.Options {
	return m.defaults
}
