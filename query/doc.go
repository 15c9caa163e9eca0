// Package query is a deduplicating cache of remote data keyed by endpoint and
// argument.
//
// The first Subscribe for a key starts a fetch; later subscribers share it.
// Every subscriber sees the same transitions, pending to fulfilled or
// rejected. Fulfilled data is served from the cache until the entry is
// invalidated or has had no subscribers for the KeepUnusedFor window.
// Dropping to zero subscribers cancels a fetch still in flight, and results
// of superseded fetches are discarded.
//
//	sub := query.Subscribe(ctx, cache, pokedex.ByName, "pikachu")
//	defer sub.Unsubscribe()
//	st, err := sub.Wait(ctx)
//
// WithStore mirrors entry transitions into a store through query/* actions
// reduced by Reducer under the "api" slice.
package query
