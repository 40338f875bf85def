package agent

// State is the position of the loop in its request cycle.
type State int32

// Loop states.
const (
	StateAwaitingUserInput State = iota
	StateAwaitingModelResponse
	StateExecutingTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingUserInput:
		return "awaiting-user-input"
	case StateAwaitingModelResponse:
		return "awaiting-model-response"
	case StateExecutingTools:
		return "executing-tools"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
