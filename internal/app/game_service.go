package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizlive-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored and how join-code
// uniqueness among non-finished sessions is enforced.
type SessionRepository interface {
	// Create stores the session under its join code. It fails with
	// domain.ErrJoinCodeInUse while a non-finished session holds the code.
	Create(joinCode string, session *Session) error
	Get(joinCode string) (*Session, bool)
	// DeleteIfFinished evicts the session once it is finished and its room
	// has no subscribers left.
	DeleteIfFinished(joinCode string)
}

// QuizRepository resolves quiz content from the external catalog.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// joinCodeAttempts bounds collision retries during session creation.
const joinCodeAttempts = 32

// GameService contains the live session use cases: lifecycle, admission,
// scoring and leaderboards.
type GameService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	timerFor func(seconds int) time.Duration
}

// ServiceOption customizes a GameService.
type ServiceOption func(*GameService)

// WithRevealTimer overrides how a question's time limit (seconds) maps to the
// auto-reveal deadline. Tests shrink it; zero disables the timer.
func WithRevealTimer(timerFor func(seconds int) time.Duration) ServiceOption {
	return func(s *GameService) { s.timerFor = timerFor }
}

func NewGameService(sessions SessionRepository, quizzes QuizRepository, opts ...ServiceOption) *GameService {
	s := &GameService{sessions: sessions, quizzes: quizzes, timerFor: secondsTimer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JoinResult is what a joining (or reconnecting) client needs to proceed.
type JoinResult struct {
	JoinCode    string
	Mode        domain.Mode
	Token       string
	Reconnected bool
	// Recover, when set, is the private state-recovery event for a
	// reconnecting client: the active question, or the terminal board.
	Recover *domain.Event
}

// CreateSession allocates a session in the waiting state and returns its join
// code. The quiz must resolve first; creation retries on join-code collision.
func (s *GameService) CreateSession(ctx context.Context, quizID, hostID string, mode domain.Mode, hostConn string) (string, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrQuizUnavailable, err)
	}
	if len(quiz.Questions) == 0 {
		return "", fmt.Errorf("%w: quiz %q has no questions", domain.ErrQuizUnavailable, quizID)
	}
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code := newJoinCode()
		session := newSession(code, quizID, hostID, hostConn, mode, s.timerFor)
		err := s.sessions.Create(code, session)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrJoinCodeInUse) {
			return "", fmt.Errorf("store session: %w", err)
		}
	}
	return "", domain.ErrJoinCodeInUse
}

// Join admits a new participant or rebinds a reconnecting one (matched by its
// reconnection token). Late first-time joins are rejected.
func (s *GameService) Join(ctx context.Context, joinCode, name, token, connID string) (JoinResult, error) {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return JoinResult{}, err
	}
	out, err := session.join(name, token, connID, quiz)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{
		JoinCode:    joinCode,
		Mode:        session.Mode(),
		Token:       out.Token,
		Reconnected: out.Reconnected,
		Recover:     out.Recover,
	}, nil
}

// Start transitions waiting -> live and broadcasts the first question.
// Host-only; a no-op when already live or finished.
func (s *GameService) Start(ctx context.Context, joinCode, connID string) error {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return err
	}
	return session.start(connID, quiz)
}

// Advance moves host-paced sessions to the next question, or finishes the
// session past the last one. Host-only.
func (s *GameService) Advance(ctx context.Context, joinCode, connID string) error {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return err
	}
	return session.advance(connID, quiz)
}

// RequestQuestion serves practice-mode pacing: the question at index for the
// calling participant, or their personal game-over view past the end.
func (s *GameService) RequestQuestion(ctx context.Context, joinCode, connID string, index int) (domain.Event, error) {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return domain.Event{}, err
	}
	return session.requestQuestion(connID, index, quiz)
}

// SubmitAnswer scores one submission, at most once per participant per
// question index.
func (s *GameService) SubmitAnswer(ctx context.Context, joinCode, connID string, questionIndex, optionIndex int) (domain.AnswerResult, error) {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return session.submit(connID, questionIndex, optionIndex, quiz)
}

// Reveal closes the active question and broadcasts its correct option.
// Host-only; also fired by the per-question deadline timer.
func (s *GameService) Reveal(ctx context.Context, joinCode, connID string) error {
	session, quiz, err := s.resolve(ctx, joinCode)
	if err != nil {
		return err
	}
	return session.reveal(connID, quiz)
}

// ShowLeaderboard broadcasts the intermediate top board without touching
// status or question pointer. Host-only.
func (s *GameService) ShowLeaderboard(joinCode, connID string) error {
	session, ok := s.sessions.Get(joinCode)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.showLeaderboard(connID)
}

// Finalize ends the session early with a terminal leaderboard. Host-only;
// Advance past the last question takes the same path.
func (s *GameService) Finalize(joinCode, connID string) error {
	session, ok := s.sessions.Get(joinCode)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.finalize(connID)
}

// Leaderboard returns the full ranked board, regardless of mode or status.
func (s *GameService) Leaderboard(joinCode string) (domain.Leaderboard, error) {
	session, ok := s.sessions.Get(joinCode)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return session.Leaderboard(), nil
}

// Subscribe attaches the caller to the session's room. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(joinCode string) (<-chan domain.Event, func(), error) {
	session, ok := s.sessions.Get(joinCode)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Disconnect is called after a connection unsubscribes from a room. The
// participant record stays put for reconnection; the store may evict the
// session once it is finished and its room has emptied.
func (s *GameService) Disconnect(joinCode string) {
	s.sessions.DeleteIfFinished(joinCode)
}

func (s *GameService) resolve(ctx context.Context, joinCode string) (*Session, domain.Quiz, error) {
	session, ok := s.sessions.Get(joinCode)
	if !ok {
		return nil, domain.Quiz{}, domain.ErrSessionNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID())
	if err != nil {
		return nil, domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrQuizUnavailable, err)
	}
	return session, quiz, nil
}
