package domain

// Status is the coarse lifecycle state of a game session.
// Transitions are monotonic: waiting -> live -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Participant is a joined player within one session. It is owned exclusively
// by its session and never shared across sessions. The reconnection token is
// the stable identity; the connection ID is rebound on every reconnect.
type Participant struct {
	Token  string
	Name   string
	ConnID string
	Score  int
	Streak int
	// Answered records every question index this participant has submitted,
	// so retries and out-of-order practice submissions never re-score.
	Answered  map[int]bool
	JoinOrder int
}

// HasAnswered reports whether the participant already submitted for index.
func (p *Participant) HasAnswered(index int) bool {
	return p.Answered[index]
}

// LeaderboardEntry is a snapshot-friendly view of a participant's standing.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Streak int    `json:"streak"`
}

// Leaderboard captures the ordered scoreboard for a session: score descending,
// ties broken by join order.
type Leaderboard struct {
	JoinCode string             `json:"joinCode"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// AnswerResult summarizes the outcome of one submission for the submitting
// connection. Duplicate is set when the participant had already answered the
// question; no delta is applied in that case.
type AnswerResult struct {
	Correct    bool `json:"isCorrect"`
	ScoreDelta int  `json:"scoreDelta"`
	TotalScore int  `json:"totalScore"`
	Streak     int  `json:"streak"`
	Duplicate  bool `json:"duplicate,omitempty"`
}

// Option is a possible answer for a question. The correctness flag never
// leaves the server; broadcasts carry option texts only.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is one entry of a quiz. Questions are addressed by index, not ID.
type Question struct {
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options"`
	TimeLimit   int      `json:"timeLimit"` // seconds; DefaultTimeLimit when zero
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is an opaque ordered list of questions, owned by an external catalog
// and immutable for the lifetime of any session that references it.
type Quiz struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// DefaultTimeLimit applies when a question does not carry its own limit.
const DefaultTimeLimit = 30

// EffectiveTimeLimit returns the per-question deadline in seconds.
func (q Question) EffectiveTimeLimit() int {
	if q.TimeLimit > 0 {
		return q.TimeLimit
	}
	return DefaultTimeLimit
}

// CorrectOption returns the index of the first option flagged correct,
// or -1 if the question has none.
func (q Question) CorrectOption() int {
	for i, opt := range q.Options {
		if opt.Correct {
			return i
		}
	}
	return -1
}
