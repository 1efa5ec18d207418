package domain

import "errors"

var (
	// ErrSessionNotFound is returned for a join code with no active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrGameAlreadyStarted rejects first-time joins after the lobby closed.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrQuizUnavailable indicates the external quiz catalog could not
	// resolve the referenced quiz.
	ErrQuizUnavailable = errors.New("quiz unavailable")
	// ErrQuestionIndexInvalid indicates the quiz has no question at the
	// submitted index.
	ErrQuestionIndexInvalid = errors.New("question index out of range")
	// ErrOptionIndexInvalid indicates the option index is out of range for
	// the question.
	ErrOptionIndexInvalid = errors.New("option index out of range")
	// ErrUnauthorized rejects lifecycle calls from a connection other than
	// the session host.
	ErrUnauthorized = errors.New("not the session host")
	// ErrNameTaken rejects a join whose display name belongs to another
	// participant and no matching reconnection token was presented.
	ErrNameTaken = errors.New("name already taken in this session")
	// ErrParticipantNotFound is returned when a connection acts before
	// joining the session.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrJoinCodeInUse signals a join code collision with a non-finished
	// session; callers retry with a fresh code.
	ErrJoinCodeInUse = errors.New("join code already in use")
	// ErrSubmissionsNotAccepted rejects answers outside a scored, live
	// session (slideshow mode, or before start / after finish).
	ErrSubmissionsNotAccepted = errors.New("session is not accepting answers")
	// ErrModeMismatch rejects an operation that does not exist in the
	// session's mode (e.g. host advance in practice mode).
	ErrModeMismatch = errors.New("operation not available in this mode")
	// ErrModeUnknown rejects an unrecognized mode string at creation.
	ErrModeUnknown = errors.New("unknown game mode")
	// ErrAlreadyInSession rejects a connection that is bound to one session
	// and tries to enter another.
	ErrAlreadyInSession = errors.New("connection already bound to a session")
)

// ErrorCode maps a domain error to the protocol error code sent to the
// offending connection. Unrecognized errors map to Internal.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFound"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "GameAlreadyStarted"
	case errors.Is(err, ErrQuizUnavailable):
		return "QuizUnavailable"
	case errors.Is(err, ErrQuestionIndexInvalid):
		return "QuestionIndexInvalid"
	case errors.Is(err, ErrOptionIndexInvalid):
		return "OptionIndexInvalid"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNameTaken):
		return "NameTaken"
	case errors.Is(err, ErrParticipantNotFound):
		return "ParticipantNotFound"
	case errors.Is(err, ErrJoinCodeInUse):
		return "JoinCodeInUse"
	case errors.Is(err, ErrSubmissionsNotAccepted):
		return "SubmissionsNotAccepted"
	case errors.Is(err, ErrModeMismatch):
		return "ModeMismatch"
	case errors.Is(err, ErrModeUnknown):
		return "ModeUnknown"
	case errors.Is(err, ErrAlreadyInSession):
		return "AlreadyInSession"
	}
	return "Internal"
}
