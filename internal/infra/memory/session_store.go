package memory

import (
	"sync"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// SessionStore is the in-memory implementation of app.SessionRepository.
// It is the join-code uniqueness authority: a code can be reused only after
// its previous session finished.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(joinCode string, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[joinCode]; ok && existing.Status() != domain.StatusFinished {
		return domain.ErrJoinCodeInUse
	}
	s.sessions[joinCode] = session
	return nil
}

func (s *SessionStore) Get(joinCode string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[joinCode]
	return session, ok
}

func (s *SessionStore) DeleteIfFinished(joinCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[joinCode]
	if !ok {
		return
	}
	if session.Disposable() {
		delete(s.sessions, joinCode)
	}
}
