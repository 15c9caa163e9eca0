// Package provider defines the fetcher abstraction behind query endpoints and
// rate sources.
//
// A RequestResponse[I, O] takes one input and returns one output. Fetchers
// are composed with middleware:
//
//	fetch := provider.Chain(
//	    provider.WithLogging[string, Pokemon](log),
//	    provider.WithMetrics[string, Pokemon](metrics),
//	    provider.WithTracing[string, Pokemon](),
//	)(raw)
//
// Adapt bridges a backend provider (for example an httpclient.Adapter) to a
// domain-typed one. ContextStore[C] is the persistence interface used for
// durable app state; MemoryStore is the in-process implementation and the
// storage, redis and database packages provide durable ones.
package provider
