package provider

import "context"

// Provider is the base interface of every backend.
type Provider interface {
	Name() string
	// IsAvailable reports whether the provider can take requests now.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse takes one input and returns one output.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Closeable is implemented by providers holding resources.
type Closeable interface {
	Close(ctx context.Context) error
}

// Func wraps fn as a named RequestResponse that is always available.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string                     { return f.name }
func (f *funcRR[I, O]) IsAvailable(context.Context) bool { return true }

func (f *funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}
