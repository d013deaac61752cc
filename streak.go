package mugshot

// State is the state of a capture streak.
type State int

// Streak states.
const (
	Waiting State = iota
	Committed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Committed:
		return "committed"
	case TimedOut:
		return "timed out"
	}
	return "unknown"
}

// DefaultThreshold is the number of consecutive qualifying frames needed to commit.
const DefaultThreshold = 11

// Streak counts consecutive qualifying frames and decides when the capture
// commits or runs out of frames. Once committed or timed out it ignores further input.
type Streak struct {
	threshold int
	maxFrames int

	streak int
	frames int
	state  State
}

// NewStreak creates a streak committing after threshold consecutive accepts
// and timing out after maxFrames frames. A threshold below one uses DefaultThreshold.
func NewStreak(threshold, maxFrames int) *Streak {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	return &Streak{
		threshold: threshold,
		maxFrames: maxFrames,
	}
}

// Tick accounts for one consumed frame.
func (s *Streak) Tick() State {
	if s.state != Waiting {
		return s.state
	}
	s.frames++
	return s.state
}

// Update records the verdict of the current frame. A rejection resets the streak.
func (s *Streak) Update(accepted bool) State {
	if s.state != Waiting {
		return s.state
	}
	if accepted {
		s.streak++
	} else {
		s.streak = 0
	}
	if s.streak >= s.threshold {
		s.state = Committed
	}
	return s.state
}

// Settle closes the current frame: without a commit, reaching the frame budget times out.
func (s *Streak) Settle() State {
	if s.state == Waiting && s.frames >= s.maxFrames {
		s.state = TimedOut
	}
	return s.state
}

// Count returns the current number of consecutive accepted frames.
func (s *Streak) Count() int { return s.streak }

// Frames returns the number of consumed frames.
func (s *Streak) Frames() int { return s.frames }

// State returns the current state.
func (s *Streak) State() State { return s.state }
