// Package pokedex reads PokeAPI through the query cache: a short list of
// pokemon and details by name, plus the current selection.
package pokedex

import (
	"strconv"
	"strings"

	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/provider"
	"github.com/kbukum/statekit/query"
)

// BaseURL is the public PokeAPI root.
const BaseURL = "https://pokeapi.co/api/v2/"

// ListLimit is how many pokemon getPokemons asks for.
const ListLimit = 9

// Endpoint names, which prefix cache keys.
const (
	EndpointList   = "getPokemons"
	EndpointByName = "getPokemonByName"
)

// NamedResource is a PokeAPI list item.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type PokemonList struct {
	Count   int             `json:"count"`
	Results []NamedResource `json:"results"`
}

type Pokemon struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Height  int    `json:"height"`
	Weight  int    `json:"weight"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
	Types []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
}

// HeightMeters converts from decimetres.
func (p Pokemon) HeightMeters() float64 { return float64(p.Height) / 10 }

// WeightKilograms converts from hectograms.
func (p Pokemon) WeightKilograms() float64 { return float64(p.Weight) / 10 }

// TypeNames lists the pokemon's types in slot order.
func (p Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// NoArg is the argument of endpoints that take none.
type NoArg struct{}

// API holds the pokedex endpoints.
type API struct {
	Pokemons      *query.Endpoint[NoArg, PokemonList]
	PokemonByName *query.Endpoint[string, Pokemon]
}

type options struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures NewAPI.
type Option func(*options)

// WithLogger logs every fetch.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records every fetch.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewAPI builds the endpoints on top of a, whose base URL should be BaseURL
// or a stand-in.
func NewAPI(a *httpclient.Adapter, opts ...Option) *API {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	list := query.HTTPEndpoint[NoArg, PokemonList](EndpointList, a,
		func(NoArg) httpclient.Request {
			return httpclient.Request{Path: "pokemon", Query: map[string]string{"limit": strconv.Itoa(ListLimit)}}
		}, nil)
	byName := query.HTTPEndpoint[string, Pokemon](EndpointByName, a,
		func(name string) httpclient.Request {
			return httpclient.Request{Path: "pokemon/" + strings.ToLower(strings.TrimSpace(name))}
		}, nil)

	return &API{
		Pokemons: query.NewEndpoint(instrument(list, o),
			query.WithArgKey[NoArg, PokemonList](func(NoArg) string { return "undefined" })),
		PokemonByName: query.NewEndpoint(instrument(byName, o),
			query.WithErrorMessage[string, Pokemon](errorMessage)),
	}
}

func instrument[I, O any](fetch provider.RequestResponse[I, O], o *options) provider.RequestResponse[I, O] {
	mws := []provider.Middleware[I, O]{provider.WithTracing[I, O]()}
	if o.log != nil {
		mws = append(mws, provider.WithLogging[I, O](o.log))
	}
	if o.metrics != nil {
		mws = append(mws, provider.WithMetrics[I, O](o.metrics))
	}
	return provider.Chain(mws...)(fetch)
}

func errorMessage(err error) string {
	if httpclient.IsNotFound(err) {
		return "Pokemon not found!"
	}
	return query.ErrorMessage(err)
}
