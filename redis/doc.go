// Package redis is the optional Redis persistence backend.
//
// Client wraps go-redis with statekit logging, Component plugs it into the
// daemon lifecycle, and TypedStore implements provider.ContextStore so any
// slice state can be saved as JSON and restored on the next start.
package redis
