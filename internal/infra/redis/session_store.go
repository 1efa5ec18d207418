package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

// SessionStore implements app.SessionRepository with Redis as the join-code
// uniqueness authority across instances. Notes:
//   - Sessions themselves stay in a local map so the in-process room
//     broadcast keeps working; Redis holds a liveness claim per join code.
//   - The claim is taken with SET NX, so two hosts on different instances
//     cannot end up with the same PIN.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans room events out across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(joinCode string, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[joinCode]; ok && existing.Status() != domain.StatusFinished {
		return domain.ErrJoinCodeInUse
	}
	claimed, err := s.client.SetNX(context.Background(), s.key(joinCode), session.QuizID(), s.ttl).Result()
	if err == nil && !claimed {
		return domain.ErrJoinCodeInUse
	}
	// A Redis error degrades to local-only uniqueness rather than blocking
	// session creation.
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
		_ = s.client.Del(context.Background(), s.key(joinCode)).Err()
	}
}

func (s *SessionStore) key(joinCode string) string {
	return "game:session:" + joinCode
}
