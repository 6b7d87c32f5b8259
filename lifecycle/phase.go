package lifecycle

import "fmt"

// Phase is a stage of an application run, as tracked by a [Sequencer].
type Phase int

const (
	PhaseNew Phase = iota
	PhaseStarting
	PhaseEnvironmentPrepared
	PhaseContextInitialized
	PhaseContextLoaded
	PhaseStarted
	PhaseRunning
	PhaseFailed // PhaseFailed is terminal, and may be entered from any other phase.
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseStarting:
		return "starting"
	case PhaseEnvironmentPrepared:
		return "environment_prepared"
	case PhaseContextInitialized:
		return "context_initialized"
	case PhaseContextLoaded:
		return "context_loaded"
	case PhaseStarted:
		return "started"
	case PhaseRunning:
		return "running"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// canAdvance reports whether a run in phase p may move to target.
// Phases only move forward, but may skip ahead. Nothing follows PhaseFailed.
func (p Phase) canAdvance(target Phase) bool {
	if p == PhaseFailed {
		return false
	}
	return target > p && target <= PhaseFailed
}
