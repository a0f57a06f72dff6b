package pipeline

// State tracks how far an optimization run progressed. Transitions only move
// forward: Idle, Staged, OptimizerRan, Relayed, CleanedUp.
type State int

const (
	StateIdle State = iota
	StateStaged
	StateOptimizerRan
	StateRelayed
	StateCleanedUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStaged:
		return "staged"
	case StateOptimizerRan:
		return "optimizer_ran"
	case StateRelayed:
		return "relayed"
	case StateCleanedUp:
		return "cleaned_up"
	default:
		return "unknown"
	}
}
