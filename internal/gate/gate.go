// Package gate debounces a per-frame presence signal into start and stop
// decisions. A start needs a sustained absence of at least MinAway and a stop
// needs a sustained presence of at least MinBack; each timer resets when the
// signal flips back.
package gate

import "time"

// Decision is the outcome of one gate update.
type Decision int

const (
	None Decision = iota
	StartRequested
	StopRequested
)

func (d Decision) String() string {
	switch d {
	case StartRequested:
		return "start"
	case StopRequested:
		return "stop"
	default:
		return "none"
	}
}

// Sample is one presence observation.
type Sample struct {
	At      time.Time
	Present bool
}

// State is a snapshot of the gate. At most one of AwaySince and BackSince is
// set, and AwaySince is nil while Recording.
type State struct {
	AwaySince *time.Time
	BackSince *time.Time
	Recording bool
}

// Gate is the hysteresis state machine. It is not safe for concurrent use;
// the sampling loop owns it.
type Gate struct {
	minAway time.Duration
	minBack time.Duration

	awaySince time.Time
	backSince time.Time
	hasAway   bool
	hasBack   bool
	recording bool
}

// New returns an idle gate.
func New(minAway, minBack time.Duration) *Gate {
	return &Gate{minAway: minAway, minBack: minBack}
}

// Observe feeds one sample and returns the resulting decision.
func (g *Gate) Observe(s Sample) Decision {
	if !g.recording {
		if s.Present {
			g.hasAway = false
			return None
		}
		if !g.hasAway {
			g.awaySince = s.At
			g.hasAway = true
		}
		if s.At.Sub(g.awaySince) >= g.minAway {
			g.hasAway = false
			g.recording = true
			return StartRequested
		}
		return None
	}

	if !s.Present {
		g.hasBack = false
		return None
	}
	if !g.hasBack {
		g.backSince = s.At
		g.hasBack = true
	}
	if s.At.Sub(g.backSince) >= g.minBack {
		g.hasBack = false
		g.recording = false
		return StopRequested
	}
	return None
}

// ForceStart requests a start immediately, bypassing the away timer.
func (g *Gate) ForceStart() Decision {
	if g.recording {
		return None
	}
	g.hasAway = false
	g.hasBack = false
	g.recording = true
	return StartRequested
}

// ForceStop requests a stop immediately, bypassing the return timer.
func (g *Gate) ForceStop() Decision {
	if !g.recording {
		return None
	}
	g.hasBack = false
	g.hasAway = false
	g.recording = false
	return StopRequested
}

// Reset returns the gate to Idle with both timers cleared. The controller
// calls it when a requested start could not be honoured.
func (g *Gate) Reset() {
	g.hasAway = false
	g.hasBack = false
	g.recording = false
}

// Recording reports whether the gate is in the Recording state.
func (g *Gate) Recording() bool {
	return g.recording
}

// State returns a copy of the current state.
func (g *Gate) State() State {
	st := State{Recording: g.recording}
	if g.hasAway {
		t := g.awaySince
		st.AwaySince = &t
	}
	if g.hasBack {
		t := g.backSince
		st.BackSince = &t
	}
	return st
}
