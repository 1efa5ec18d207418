package app

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizlive-service/internal/domain"
)

// CorrectAnswerScore is the fixed delta awarded per correct answer.
const CorrectAnswerScore = 100

// leaderboardTopN caps intermediate and practice game-over boards; the full
// board stays queryable and is broadcast on finish.
const leaderboardTopN = 5

// phase is the intra-question sub-cycle of host-paced modes.
type phase int

const (
	phaseLobby phase = iota
	phaseQuestionActive
	phaseAnswerRevealed
	phaseLeaderboardShown
)

// Session is the aggregate root for one run of a quiz: participants, status,
// question pointer and the room's subscriber set. All mutations happen under
// its lock, so concurrent submissions and host advances cannot lose updates.
type Session struct {
	joinCode string
	quizID   string
	hostID   string
	hostConn string
	mode     domain.Mode
	timerFor func(seconds int) time.Duration

	mu           sync.RWMutex
	status       domain.Status
	phase        phase
	currentIndex int
	participants []*domain.Participant
	byToken      map[string]*domain.Participant
	byConn       map[string]*domain.Participant
	subscribers  map[chan domain.Event]struct{}
	revealTimer  *time.Timer
}

// NewSession is exported for infrastructure layers and tests that need to
// seed a session directly. The reveal timer runs at real-time resolution.
func NewSession(joinCode, quizID, hostID, hostConn string, mode domain.Mode) *Session {
	return newSession(joinCode, quizID, hostID, hostConn, mode, secondsTimer)
}

func newSession(joinCode, quizID, hostID, hostConn string, mode domain.Mode, timerFor func(int) time.Duration) *Session {
	if timerFor == nil {
		timerFor = secondsTimer
	}
	return &Session{
		joinCode:     joinCode,
		quizID:       quizID,
		hostID:       hostID,
		hostConn:     hostConn,
		mode:         mode,
		timerFor:     timerFor,
		status:       domain.StatusWaiting,
		participants: nil,
		byToken:      make(map[string]*domain.Participant),
		byConn:       make(map[string]*domain.Participant),
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

func secondsTimer(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// JoinCode returns the session's join code.
func (s *Session) JoinCode() string { return s.joinCode }

// QuizID returns the opaque quiz reference the session plays.
func (s *Session) QuizID() string { return s.quizID }

// Mode returns the session's game mode.
func (s *Session) Mode() domain.Mode { return s.mode }

// Status returns the current lifecycle status.
func (s *Session) Status() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// CurrentIndex returns the session-wide question pointer.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// ParticipantCount returns how many participants have ever joined.
func (s *Session) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

// Disposable reports whether the store may evict the session: it is finished
// and no connection is subscribed to its room anymore.
func (s *Session) Disposable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == domain.StatusFinished && len(s.subscribers) == 0
}

// Leaderboard returns the full ranked board.
func (s *Session) Leaderboard() domain.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboardLocked(0)
}

type joinOutcome struct {
	Token       string
	Reconnected bool
	// Recover carries the state-recovery event (current question or terminal
	// board) sent privately to a reconnecting client.
	Recover *domain.Event
}

func (s *Session) join(name, token, connID string, quiz domain.Quiz) (joinOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != "" {
		if p, ok := s.byToken[token]; ok {
			// Reconnection: rebind the connection, keep score and streak.
			delete(s.byConn, p.ConnID)
			p.ConnID = connID
			s.byConn[connID] = p

			out := joinOutcome{Token: p.Token, Reconnected: true}
			switch s.status {
			case domain.StatusLive:
				if s.mode.HostPaced() && s.currentIndex < len(quiz.Questions) {
					ev := domain.Event{
						Type:    domain.EventNewQuestion,
						Payload: domain.SanitizeQuestion(quiz.Questions[s.currentIndex], s.currentIndex, len(quiz.Questions)),
					}
					out.Recover = &ev
				}
			case domain.StatusFinished:
				ev := domain.Event{Type: domain.EventSessionFinished, Payload: s.leaderboardLocked(0)}
				out.Recover = &ev
			}
			return out, nil
		}
	}

	// Display names stay unique per session (exact, case-sensitive match).
	for _, p := range s.participants {
		if p.Name == name {
			return joinOutcome{}, domain.ErrNameTaken
		}
	}
	if s.status != domain.StatusWaiting {
		return joinOutcome{}, domain.ErrGameAlreadyStarted
	}

	p := &domain.Participant{
		Token:     uuid.NewString(),
		Name:      name,
		ConnID:    connID,
		Answered:  make(map[int]bool),
		JoinOrder: len(s.participants),
	}
	s.participants = append(s.participants, p)
	s.byToken[p.Token] = p
	s.byConn[connID] = p

	s.broadcastLocked(domain.Event{
		Type:    domain.EventParticipantJoined,
		Payload: domain.ParticipantJoinedPayload{Name: name, TotalCount: len(s.participants)},
	})
	return joinOutcome{Token: p.Token}, nil
}

func (s *Session) start(connID string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn {
		return domain.ErrUnauthorized
	}
	if s.status != domain.StatusWaiting {
		// Idempotent under duplicate host clicks.
		return nil
	}
	s.status = domain.StatusLive
	s.currentIndex = 0
	if len(quiz.Questions) == 0 {
		// The catalog shrank the quiz after creation; nothing to play.
		s.finalizeLocked()
		return nil
	}
	s.broadcastQuestionLocked(quiz)
	return nil
}

func (s *Session) advance(connID string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn {
		return domain.ErrUnauthorized
	}
	if !s.mode.HostPaced() {
		return domain.ErrModeMismatch
	}
	if s.status != domain.StatusLive {
		return nil
	}
	next := s.currentIndex + 1
	if next < len(quiz.Questions) {
		s.currentIndex = next
		s.broadcastQuestionLocked(quiz)
		return nil
	}
	s.finalizeLocked()
	return nil
}

func (s *Session) requestQuestion(connID string, index int, quiz domain.Quiz) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mode.SelfPaced() {
		return domain.Event{}, domain.ErrModeMismatch
	}
	p, ok := s.byConn[connID]
	if !ok {
		return domain.Event{}, domain.ErrParticipantNotFound
	}
	if index < 0 {
		return domain.Event{}, domain.ErrQuestionIndexInvalid
	}
	if index < len(quiz.Questions) {
		return domain.Event{
			Type:    domain.EventNewQuestion,
			Payload: domain.SanitizeQuestion(quiz.Questions[index], index, len(quiz.Questions)),
		}, nil
	}
	// Past the end: this participant is done. Status stays untouched so other
	// practice players finish on their own schedule.
	return domain.Event{
		Type: domain.EventGameOver,
		Payload: domain.GameOverPayload{
			Leaderboard: s.leaderboardLocked(leaderboardTopN),
			PlayerScore: p.Score,
		},
	}, nil
}

func (s *Session) submit(connID string, questionIndex, optionIndex int, quiz domain.Quiz) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mode.Scored() || s.status != domain.StatusLive {
		return domain.AnswerResult{}, domain.ErrSubmissionsNotAccepted
	}
	p, ok := s.byConn[connID]
	if !ok {
		return domain.AnswerResult{}, domain.ErrParticipantNotFound
	}
	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return domain.AnswerResult{}, domain.ErrQuestionIndexInvalid
	}
	if s.mode.HostPaced() && questionIndex != s.currentIndex {
		// Host-paced submissions must target the active question.
		return domain.AnswerResult{}, domain.ErrQuestionIndexInvalid
	}
	question := quiz.Questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.AnswerResult{}, domain.ErrOptionIndexInvalid
	}

	correct := question.Options[optionIndex].Correct
	if p.HasAnswered(questionIndex) {
		// Duplicate or retried submission: acknowledge, never re-apply.
		return domain.AnswerResult{
			Correct:    correct,
			TotalScore: p.Score,
			Streak:     p.Streak,
			Duplicate:  true,
		}, nil
	}

	delta := 0
	if correct {
		delta = CorrectAnswerScore
		p.Streak++
	} else {
		p.Streak = 0
	}
	p.Score += delta
	p.Answered[questionIndex] = true

	answered := 0
	for _, other := range s.participants {
		if other.HasAnswered(questionIndex) {
			answered++
		}
	}
	s.broadcastLocked(domain.Event{
		Type: domain.EventParticipantAnswered,
		Payload: domain.ParticipantAnsweredPayload{
			Name:          p.Name,
			AnsweredCount: answered,
			TotalCount:    len(s.participants),
		},
	})

	return domain.AnswerResult{
		Correct:    correct,
		ScoreDelta: delta,
		TotalScore: p.Score,
		Streak:     p.Streak,
	}, nil
}

func (s *Session) reveal(connID string, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn {
		return domain.ErrUnauthorized
	}
	if !s.mode.HostPaced() {
		return domain.ErrModeMismatch
	}
	s.revealLocked(quiz)
	return nil
}

// autoReveal fires from the per-question deadline timer. It is a no-op unless
// the same question is still active, so a host reveal or advance that raced
// the timer wins.
func (s *Session) autoReveal(index int, quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusLive || s.phase != phaseQuestionActive || s.currentIndex != index {
		return
	}
	s.revealLocked(quiz)
}

func (s *Session) revealLocked(quiz domain.Quiz) {
	if s.status != domain.StatusLive || s.phase != phaseQuestionActive {
		return
	}
	if s.currentIndex >= len(quiz.Questions) {
		return
	}
	s.stopTimerLocked()
	s.phase = phaseAnswerRevealed
	question := quiz.Questions[s.currentIndex]
	s.broadcastLocked(domain.Event{
		Type: domain.EventAnswerRevealed,
		Payload: domain.AnswerRevealedPayload{
			CorrectOptionIndex: question.CorrectOption(),
			Explanation:        question.Explanation,
		},
	})
}

func (s *Session) showLeaderboard(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostConn {
		return domain.ErrUnauthorized
	}
	if !s.mode.HostPaced() {
		return domain.ErrModeMismatch
	}
	if s.status == domain.StatusFinished {
		return nil
	}
	if s.phase == phaseAnswerRevealed {
		s.phase = phaseLeaderboardShown
	}
	s.broadcastLocked(domain.Event{
		Type:    domain.EventLeaderboardUpdate,
		Payload: s.leaderboardLocked(leaderboardTopN),
	})
	return nil
}

func (s *Session) finalize(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if connID != s.hostConn {
		return domain.ErrUnauthorized
	}
	s.finalizeLocked()
	return nil
}

// finalizeLocked is the single point at which a session becomes immutable.
func (s *Session) finalizeLocked() {
	if s.status == domain.StatusFinished {
		return
	}
	s.status = domain.StatusFinished
	s.phase = phaseLobby
	s.stopTimerLocked()
	s.broadcastLocked(domain.Event{
		Type:    domain.EventSessionFinished,
		Payload: s.leaderboardLocked(0),
	})
}

func (s *Session) broadcastQuestionLocked(quiz domain.Quiz) {
	question := quiz.Questions[s.currentIndex]
	s.stopTimerLocked()
	s.phase = phaseQuestionActive
	s.broadcastLocked(domain.Event{
		Type:    domain.EventNewQuestion,
		Payload: domain.SanitizeQuestion(question, s.currentIndex, len(quiz.Questions)),
	})
	if s.mode.HostPaced() {
		if d := s.timerFor(question.EffectiveTimeLimit()); d > 0 {
			index := s.currentIndex
			s.revealTimer = time.AfterFunc(d, func() { s.autoReveal(index, quiz) })
		}
	}
}

func (s *Session) stopTimerLocked() {
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
}

func (s *Session) leaderboardLocked(limit int) domain.Leaderboard {
	ranked := make([]*domain.Participant, len(s.participants))
	copy(ranked, s.participants)
	// Stable sort over the join-ordered slice keeps ties deterministic.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		entries[i] = domain.LeaderboardEntry{Name: p.Name, Score: p.Score, Streak: p.Streak}
	}
	return domain.Leaderboard{JoinCode: s.joinCode, Entries: entries}
}

func (s *Session) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(ev domain.Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so a slow room subscriber cannot
			// block everyone else.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
