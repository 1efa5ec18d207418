package domain

// EventType names a server-originated room or private message.
type EventType string

const (
	EventParticipantJoined   EventType = "participantJoined"
	EventNewQuestion         EventType = "newQuestion"
	EventParticipantAnswered EventType = "participantAnswered"
	EventAnswerRevealed      EventType = "answerRevealed"
	EventLeaderboardUpdate   EventType = "leaderboardUpdate"
	EventSessionFinished     EventType = "sessionFinished"
	EventGameOver            EventType = "gameOver"
)

// Event is one broadcastable message. Room subscribers receive events in
// order; slow subscribers may observe stale events being dropped in favor of
// newer ones.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// ParticipantJoinedPayload updates the host lobby view.
type ParticipantJoinedPayload struct {
	Name       string `json:"name"`
	TotalCount int    `json:"totalCount"`
}

// QuestionPayload is the sanitized question broadcast: option texts only,
// no correctness flags, no explanation.
type QuestionPayload struct {
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	TimeLimit int      `json:"timeLimit"`
}

// ParticipantAnsweredPayload is the live response-rate signal for the host.
type ParticipantAnsweredPayload struct {
	Name          string `json:"name"`
	AnsweredCount int    `json:"answeredCount"`
	TotalCount    int    `json:"totalCount"`
}

// AnswerRevealedPayload discloses the correct option after a question closes.
type AnswerRevealedPayload struct {
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	Explanation        string `json:"explanation,omitempty"`
}

// GameOverPayload is the practice-mode personal terminal view: the shared
// top board plus the requesting player's own score.
type GameOverPayload struct {
	Leaderboard Leaderboard `json:"leaderboard"`
	PlayerScore int         `json:"playerScore"`
}

// SanitizeQuestion strips scoring information from a question for broadcast.
func SanitizeQuestion(q Question, index, total int) QuestionPayload {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Text
	}
	return QuestionPayload{
		Prompt:    q.Prompt,
		Options:   options,
		Index:     index,
		Total:     total,
		TimeLimit: q.EffectiveTimeLimit(),
	}
}
