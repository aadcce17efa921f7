package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Store keeps independent sessions keyed by id and forgets idle ones.
type Store struct {
	analyzer Analyzer
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(analyzer Analyzer, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		analyzer: analyzer,
		ttl:      ttl,
		logger:   logger.Named("pipeline"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new idle session. Expired sessions are swept first.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	id := uuid.New().String()
	session := newSession(id, s.analyzer, s.logger, s.now)
	s.sessions[id] = session
	s.logger.Debug("session created", zap.String("session", id), zap.Int("active", len(s.sessions)))
	return session
}

// Get returns the session for id, or ErrSessionNotFound when it is unknown
// or has expired.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.idle(s.now(), s.ttl) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) sweepLocked(now time.Time) {
	for id, session := range s.sessions {
		if session.idle(now, s.ttl) {
			delete(s.sessions, id)
			s.logger.Debug("session expired", zap.String("session", id))
		}
	}
}
