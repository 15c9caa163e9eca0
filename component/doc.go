// Package component manages the lifecycle of the long-lived parts of a
// statekit daemon: HTTP adapters, the query cache, persistence backends, the
// event hub and the HTTP server.
//
// Components start in registration order and stop in reverse order.
package component
