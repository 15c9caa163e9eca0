// Package steps is a three-step wizard that can be hidden.
package steps

import (
	"fmt"

	"github.com/kbukum/statekit/store"
)

var messages = []string{
	"Learn React ⚛️",
	"Apply for jobs 💼",
	"Invest your new income 🤑",
}

// Count is the number of steps.
var Count = len(messages)

type State struct {
	Step   int  `json:"step"`
	IsOpen bool `json:"isOpen"`
}

// Initial shows step 1.
var Initial = State{Step: 1, IsOpen: true}

const (
	ActionPrevious = "steps/previous"
	ActionNext     = "steps/next"
	ActionToggle   = "steps/toggle"
)

type (
	Previous struct{}
	Next     struct{}
	Toggle   struct{}
)

func (Previous) Type() string { return ActionPrevious }
func (Next) Type() string     { return ActionNext }
func (Toggle) Type() string   { return ActionToggle }

// Reduce keeps the step within 1..Count.
func Reduce(s State, action store.Action) State {
	switch action.(type) {
	case Previous:
		if s.Step > 1 {
			s.Step--
		}
	case Next:
		if s.Step < Count {
			s.Step++
		}
	case Toggle:
		s.IsOpen = !s.IsOpen
	}
	return s
}

func NewStore(opts ...store.Option[State]) *store.Store[State] {
	return store.New(Reduce, Initial, opts...)
}

// Message is the text shown for the current step.
func (s State) Message() string {
	return fmt.Sprintf("Step %d: %s", s.Step, messages[s.Step-1])
}

// Active reports whether step n is reached.
func (s State) Active(n int) bool { return s.Step >= n }

func (s State) CanGoBack() bool    { return s.Step > 1 }
func (s State) CanGoForward() bool { return s.Step < Count }
