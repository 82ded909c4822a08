package core

// BadgeState mirrors the toolbar badge: idle until a scan starts, loading
// while a classification is in flight, then one of the terminal states.
type BadgeState string

const (
	BadgeIdle       BadgeState = "idle"
	BadgeLoading    BadgeState = "loading"
	BadgeSafe       BadgeState = "safe"
	BadgeSuspicious BadgeState = "suspicious"
	BadgeMalicious  BadgeState = "malicious"
	BadgeError      BadgeState = "error"
)

// Text returns the badge label for a state. Safe clears the badge.
func (s BadgeState) Text() string {
	switch s {
	case BadgeLoading:
		return "..."
	case BadgeSuspicious:
		return "!"
	case BadgeMalicious:
		return "!!"
	case BadgeError:
		return "ERR"
	default:
		return ""
	}
}

// BadgeFor maps a completed classification (or its failure) to the badge
// state the frontend should render.
func BadgeFor(result *ClassificationResult, err error) BadgeState {
	if err != nil {
		return BadgeError
	}
	if result == nil {
		return BadgeIdle
	}
	switch result.Classification {
	case ClassificationMalicious:
		return BadgeMalicious
	case ClassificationSuspicious:
		return BadgeSuspicious
	default:
		return BadgeSafe
	}
}
