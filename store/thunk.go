package store

import "context"

// ThunkType is the action type reported by every Thunk.
const ThunkType = "@@thunk"

// Thunk is a deferred computation dispatched like an action. The Thunks
// middleware invokes it with the store's dispatch and state accessor; each
// nested dispatch is fully reduced before it returns to the thunk.
type Thunk[S any] func(ctx context.Context, dispatch DispatchFunc, getState func() S) error

func (Thunk[S]) Type() string { return ThunkType }

func (Thunk[S]) isThunk() {}

type thunkAction interface {
	isThunk()
}

// Thunks returns the middleware that runs Thunk actions instead of passing
// them to the reducer. The error returned by the thunk is returned from
// Dispatch.
func Thunks[S any]() Middleware[S] {
	return func(api API[S], next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			if t, ok := action.(Thunk[S]); ok {
				return t(ctx, api.Dispatch, api.GetState)
			}
			return next(ctx, action)
		}
	}
}
