// Package resilience provides the fault-tolerance primitives used around
// remote fetches: retry with exponential backoff, a circuit breaker, a token
// bucket rate limiter and a bulkhead that caps concurrent work.
//
// Config types carry yaml/mapstructure tags so they can be embedded in
// service configuration.
package resilience
