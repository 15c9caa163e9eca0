// Package httpclient is the outbound HTTP layer used by query endpoints and
// the currency converter. An Adapter applies default headers and query
// parameters, classifies non-2xx responses into *Error values, and wraps
// every call with the resilience primitives that are configured.
//
//	a, err := httpclient.New(httpclient.Config{
//	    Name:    "omdb",
//	    BaseURL: "https://www.omdbapi.com",
//	    Query:   map[string]string{"apikey": key},
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	res, err := httpclient.Get[SearchResult](a, ctx, "/", httpclient.WithQueryParam("s", "matrix"))
//
// Adapter also satisfies provider.RequestResponse[Request, *Response], so it
// composes with the provider middleware chain.
package httpclient
