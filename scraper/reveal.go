package scraper

// RevealState is the logical position of the reveal loop.
type RevealState int

const (
	// RevealIdle means no reveal step has been observed yet.
	RevealIdle RevealState = iota
	// RevealRevealing means the page is still yielding new content.
	RevealRevealing
	// RevealStalled means the stall threshold of consecutive no-growth
	// steps has been reached.
	RevealStalled
	// RevealExhausted means a further no-growth step confirmed the stall.
	// Terminal.
	RevealExhausted
	// RevealCapped means the requested review cap was reached. Terminal.
	RevealCapped
)

func (s RevealState) String() string {
	switch s {
	case RevealIdle:
		return "idle"
	case RevealRevealing:
		return "revealing"
	case RevealStalled:
		return "stalled"
	case RevealExhausted:
		return "exhausted"
	case RevealCapped:
		return "capped"
	default:
		return "unknown"
	}
}

// revealTracker decides when the reveal loop should stop: either the cap
// is reached or repeated no-growth steps prove the source exhausted. A
// single stall is not trusted; exhaustion needs one confirming step.
type revealTracker struct {
	stallThreshold int
	limit          int

	state    RevealState
	best     int
	noGrowth int
}

func newRevealTracker(stallThreshold, limit int) *revealTracker {
	return &revealTracker{
		stallThreshold: stallThreshold,
		limit:          limit,
		state:          RevealIdle,
	}
}

// Observe folds one reveal step into the tracker. visible is the count
// of entities currently present in the page, accumulated the number of
// unique entities gathered so far. It returns the resulting state.
func (t *revealTracker) Observe(visible, accumulated int) RevealState {
	if t.state == RevealExhausted || t.state == RevealCapped {
		return t.state
	}

	if accumulated >= t.limit {
		t.state = RevealCapped
		return t.state
	}

	if visible > t.best {
		t.best = visible
		t.noGrowth = 0
		t.state = RevealRevealing
		return t.state
	}

	t.noGrowth++
	switch {
	case t.state == RevealStalled:
		t.state = RevealExhausted
	case t.noGrowth >= t.stallThreshold:
		t.state = RevealStalled
	default:
		t.state = RevealRevealing
	}
	return t.state
}

// Done reports whether the tracker reached a terminal state.
func (t *revealTracker) Done() bool {
	return t.state == RevealExhausted || t.state == RevealCapped
}
