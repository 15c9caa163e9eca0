package scope

import "sync"

// Derived is a read-only value computed from sources.
type Derived[T any] struct {
	out     *Provider[T]
	compute func() T

	mu      sync.Mutex
	removes []func()
}

// Derive computes an initial value and recomputes it whenever a source
// changes. Subscribers hear only about values that differ under equal; a nil
// equal means reflect.DeepEqual. Close detaches from the sources.
func Derive[T any](name string, compute func() T, equal func(a, b T) bool, sources ...Source) *Derived[T] {
	var opts []Option[T]
	if equal != nil {
		opts = append(opts, WithEqual(equal))
	}
	d := &Derived[T]{out: NewProvider(name, compute(), opts...), compute: compute}
	for _, src := range sources {
		d.removes = append(d.removes, src.OnChange(d.recompute))
	}
	return d
}

func (d *Derived[T]) recompute() {
	d.out.Update(func(T) T { return d.compute() })
}

func (d *Derived[T]) Get() T { return d.out.Get() }

func (d *Derived[T]) Subscribe(fn func(T)) (unsubscribe func()) { return d.out.Subscribe(fn) }

// OnChange implements Source, so views can be derived from views.
func (d *Derived[T]) OnChange(fn func()) (remove func()) { return d.out.OnChange(fn) }

// Close stops tracking the sources. The last value stays readable.
func (d *Derived[T]) Close() {
	d.mu.Lock()
	removes := d.removes
	d.removes = nil
	d.mu.Unlock()
	for _, remove := range removes {
		remove()
	}
}
