package domain

// Mode selects how a session is paced and whether answers are scored.
// It is a closed set; behavior is expressed through methods so handlers
// never compare raw strings.
type Mode string

const (
	// ModeLive is host-paced with synchronized reveal and leaderboard steps.
	ModeLive Mode = "live"
	// ModePractice lets each participant request and advance through
	// questions independently.
	ModePractice Mode = "practice"
	// ModeSlideshow is host-paced group discussion: same room mechanics as
	// live, but the scoring engine is never reachable.
	ModeSlideshow Mode = "slideshow"
)

// ParseMode validates a client-supplied mode string. Empty defaults to live,
// matching host clients that omit the field.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeLive, ModePractice, ModeSlideshow:
		return Mode(raw), nil
	case "":
		return ModeLive, nil
	}
	return "", ErrModeUnknown
}

// HostPaced reports whether the host drives question progression and the
// reveal/leaderboard sub-cycle.
func (m Mode) HostPaced() bool {
	return m == ModeLive || m == ModeSlideshow
}

// SelfPaced reports whether each participant advances on their own via
// question requests.
func (m Mode) SelfPaced() bool {
	return m == ModePractice
}

// Scored reports whether answer submissions award points.
func (m Mode) Scored() bool {
	return m == ModeLive || m == ModePractice
}
