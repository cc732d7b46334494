package engine

// State is a step of the evaluation state machine.
type State string

const (
	StateAwaitingAnalysis State = "awaiting_analysis"
	StateEvaluating       State = "evaluating"
	StateProceeding       State = "proceeding"
	StateCanceled         State = "canceled"
)

var transitions = map[State][]State{
	StateAwaitingAnalysis: {StateEvaluating, StateProceeding},
	StateEvaluating:       {StateProceeding, StateCanceled},
}

// CanTransition reports whether the state machine allows moving to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateProceeding || s == StateCanceled
}

// Disposition returns the outcome a terminal state stands for.
func (s State) Disposition() Disposition {
	if s == StateCanceled {
		return Canceled
	}
	return Proceed
}
