// Package store implements a reducer-driven state container.
//
// A Store holds one snapshot of application state. The only way to change it
// is Dispatch: the action is run through the middleware chain and then the
// store's pure reducer, the new snapshot replaces the old one and every
// subscriber is notified.
//
//	st := store.New(counterReducer, 0)
//	unsubscribe := st.Subscribe(func() { fmt.Println(st.GetState()) })
//	defer unsubscribe()
//	_ = st.Dispatch(ctx, Increment{})
//
// Reducers for independent domains are composed with Combine, which keys each
// sub-state by a typed Slice:
//
//	var Account = store.NewSlice("account", AccountState{}, ReduceAccount)
//	root := store.Combine(Account, Customer)
//	st := store.New(root.Reduce, root.Initial(), store.WithMiddleware(store.Thunks[*store.State]()))
//	balance := Account.Get(st.GetState()).Balance
//
// Asynchronous flows are Thunk values handled by the Thunks middleware.
package store
