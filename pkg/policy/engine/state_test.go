package engine

import (
	"errors"
	"testing"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from State
		to   State
		want bool
	}{
		{StateAwaitingAnalysis, StateEvaluating, true},
		{StateAwaitingAnalysis, StateProceeding, true},
		{StateAwaitingAnalysis, StateCanceled, false},
		{StateEvaluating, StateProceeding, true},
		{StateEvaluating, StateCanceled, true},
		{StateEvaluating, StateAwaitingAnalysis, false},
		{StateProceeding, StateCanceled, false},
		{StateCanceled, StateProceeding, false},
		{StateCanceled, StateEvaluating, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateProceeding, StateCanceled} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false", s)
		}
	}
	for _, s := range []State{StateAwaitingAnalysis, StateEvaluating} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true", s)
		}
	}
	if StateCanceled.Disposition() != Canceled || StateProceeding.Disposition() != Proceed {
		t.Error("terminal states map to the wrong disposition")
	}
}

func TestEvaluationContext_IllegalTransition(t *testing.T) {
	evalCtx := &EvaluationContext{State: StateCanceled}

	err := evalCtx.transition(StateProceeding)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("transition() error = %v, want %v", err, ErrIllegalTransition)
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.From != StateCanceled || te.To != StateProceeding {
		t.Errorf("TransitionError = %+v", te)
	}
	if evalCtx.State != StateCanceled {
		t.Errorf("State changed to %v on rejected transition", evalCtx.State)
	}
}
