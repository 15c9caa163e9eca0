package store

import (
	"github.com/kbukum/statekit/errors"
)

// Sentinels matched with errors.Is; the code is what matches, so a detailed
// error such as errors.UnknownAction("counter/explode") satisfies
// errors.Is(err, ErrUnknownAction).
var (
	ErrUnknownAction    = errors.UnknownAction("")
	ErrThunkUnsupported = errors.ThunkUnsupported()
)

func unknownAction(a Action) error {
	return errors.UnknownAction(a.Type())
}
