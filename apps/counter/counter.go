// Package counter is a strict date counter: a count of days moved by a
// configurable step from a fixed base date.
package counter

import (
	"encoding/json"
	"time"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

// Base is the date a zero count points at.
var Base = time.Date(2027, time.June, 21, 0, 0, 0, 0, time.UTC)

type State struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

// Initial is the state after construction and after Reset.
var Initial = State{Count: 0, Step: 1}

const (
	ActionInc      = "inc"
	ActionDec      = "dec"
	ActionSetCount = "set_count"
	ActionSetStep  = "set_step"
	ActionReset    = "reset"
)

type (
	Inc      struct{}
	Dec      struct{}
	SetCount struct {
		Count int `json:"setCount"`
	}
	SetStep struct {
		Step int `json:"setStep" validate:"min=0,max=10"`
	}
	Reset struct{}
)

func (Inc) Type() string      { return ActionInc }
func (Dec) Type() string      { return ActionDec }
func (SetCount) Type() string { return ActionSetCount }
func (SetStep) Type() string  { return ActionSetStep }
func (Reset) Type() string    { return ActionReset }

// Reduce fails with an unknown-action error for anything it does not handle.
func Reduce(s State, action store.Action) (State, error) {
	switch a := action.(type) {
	case Inc:
		s.Count += s.Step
	case Dec:
		s.Count -= s.Step
	case SetCount:
		s.Count = a.Count
	case SetStep:
		s.Step = a.Step
	case Reset:
		return Initial, nil
	default:
		return s, errors.UnknownAction(action.Type())
	}
	return s, nil
}

// NewStore returns a strict counter store.
func NewStore(log *logger.Logger) *store.Store[State] {
	return store.NewStrict(Reduce, Initial,
		store.WithName[State]("counter"),
		store.WithLogger[State](log),
		store.WithMiddleware(store.Logging[State](log)),
	)
}

// Codec decodes counter actions from JSON envelopes. SetStep payloads are
// validated.
func Codec() *store.Codec {
	c := store.NewCodec()
	store.RegisterJSON[Inc](c)
	store.RegisterJSON[Dec](c)
	store.RegisterJSON[SetCount](c)
	store.RegisterJSON[Reset](c)
	c.Register(ActionSetStep, func(payload json.RawMessage) (store.Action, error) {
		var a SetStep
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, errors.InvalidInput("payload", err.Error())
		}
		if err := validation.Validate(a); err != nil {
			return nil, err
		}
		return a, nil
	})
	return c
}

// Date is base moved by the count in days.
func Date(base time.Time, s State) time.Time {
	return base.AddDate(0, 0, s.Count)
}

// DateString formats Date like "Mon Jun 21 2027".
func DateString(base time.Time, s State) string {
	return Date(base, s).Format("Mon Jan 02 2006")
}
