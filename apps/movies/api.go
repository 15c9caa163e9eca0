package movies

import (
	stderrors "errors"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/query"
)

// BaseURL is the OMDb API root. The API key travels as a default query
// parameter of the adapter ("apikey").
const BaseURL = "https://www.omdbapi.com/"

const (
	EndpointSearch  = "searchMovies"
	EndpointDetails = "getMovieDetails"
)

// User-facing messages.
const (
	MessageFetchFailed = "Something went wrong with fetching movies"
	MessageNotFound    = "Movie not found!"
	MessageTooShort    = "Type at least three characters in the search field!"
)

// Movie is one search hit.
type Movie struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Poster string `json:"Poster"`
	Kind   string `json:"Type"`
}

type SearchResult struct {
	Search       []Movie `json:"Search"`
	TotalResults string  `json:"totalResults"`
	Response     string  `json:"Response"`
	Error        string  `json:"Error,omitempty"`
}

// Details is the full record behind an IMDb id. Numeric fields arrive as
// strings and may be "N/A".
type Details struct {
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
}

type API struct {
	Search  *query.Endpoint[string, SearchResult]
	Details *query.Endpoint[string, Details]
}

// NewAPI builds the OMDb endpoints on a.
func NewAPI(a *httpclient.Adapter) *API {
	search := query.HTTPEndpoint(EndpointSearch, a,
		func(q string) httpclient.Request {
			return httpclient.Request{Query: map[string]string{"s": q}}
		},
		func(res SearchResult) error {
			if res.Response == "False" {
				return errors.QueryRejected(EndpointSearch, MessageNotFound, nil)
			}
			return nil
		})
	details := query.HTTPEndpoint(EndpointDetails, a,
		func(id string) httpclient.Request {
			return httpclient.Request{Query: map[string]string{"i": id}}
		},
		func(d Details) error {
			if d.Response == "False" {
				return errors.QueryRejected(EndpointDetails, MessageNotFound, nil)
			}
			return nil
		})

	return &API{
		Search:  query.NewEndpoint(search, query.WithErrorMessage[string, SearchResult](errorMessage)),
		Details: query.NewEndpoint(details, query.WithErrorMessage[string, Details](errorMessage)),
	}
}

// errorMessage keeps sentinel messages and hides transport detail.
func errorMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeQueryRejected {
		return appErr.Message
	}
	var httpErr *httpclient.Error
	if stderrors.As(err, &httpErr) {
		return MessageFetchFailed
	}
	return query.ErrorMessage(err)
}
