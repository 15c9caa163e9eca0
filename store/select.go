package store

import "sync"

// Select subscribes fn to a derived value of st. fn runs only when the
// selected value differs from the previous one under equal; a nil equal uses
// == where the type allows it. The initial value is computed at subscription
// time and not delivered.
func Select[S, T any](st *Store[S], selector func(S) T, equal func(a, b T) bool, fn func(T)) (unsubscribe func()) {
	if equal == nil {
		equal = defaultEqual[T]
	}
	var mu sync.Mutex
	last := selector(st.GetState())

	return st.Subscribe(func() {
		next := selector(st.GetState())
		mu.Lock()
		if equal(last, next) {
			mu.Unlock()
			return
		}
		last = next
		mu.Unlock()
		fn(next)
	})
}
