// Package sse streams store snapshots to HTTP clients as server-sent events.
//
// A Hub fans events out to registered clients, PublishState wires a store
// into a hub, and Handler serves one event stream per request.
package sse
