package domain

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal saga transition")

type SagaState string

const (
	StateStart        SagaState = "START"
	StateReserving    SagaState = "RESERVING"
	StateReserved     SagaState = "RESERVED"
	StatePersisted    SagaState = "PERSISTED"
	StateCompleted    SagaState = "COMPLETED"
	StateRejected     SagaState = "REJECTED"
	StateCompensating SagaState = "COMPENSATING"
	StateCompensated  SagaState = "COMPENSATED"
)

var transitions = map[SagaState][]SagaState{
	StateStart:        {StateReserving},
	StateReserving:    {StateReserved, StateRejected},
	StateReserved:     {StatePersisted, StateCompensating},
	StatePersisted:    {StateCompleted},
	StateCompensating: {StateCompensated},
}

// Saga tracks one order placement. It is not safe for concurrent use; each
// request owns its own Saga.
type Saga struct {
	SKU      string
	Quantity int
	State    SagaState
	History  []SagaState
}

func NewSaga(sku string, quantity int) *Saga {
	return &Saga{SKU: sku, Quantity: quantity, State: StateStart, History: []SagaState{StateStart}}
}

func (s *Saga) Transition(to SagaState) error {
	for _, next := range transitions[s.State] {
		if next == to {
			s.State = to
			s.History = append(s.History, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.State, to)
}

// Terminal reports whether the saga has reached a state with no way out.
func (s *Saga) Terminal() bool {
	return len(transitions[s.State]) == 0
}
