package movies

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/store"
)

// MinQueryLength is the shortest query that reaches the network.
const MinQueryLength = 3

// SearchView is what a search box shows.
type SearchView struct {
	Query     string  `json:"query"`
	Movies    []Movie `json:"movies"`
	IsLoading bool    `json:"isLoading"`
	Error     string  `json:"error,omitempty"`
	// Hint is set instead of searching when the query is too short.
	Hint string `json:"hint,omitempty"`
}

// Search follows the latest query. Each new query releases the previous
// subscription, which cancels its fetch when nobody else shares it.
type Search struct {
	cache    *query.Cache
	endpoint *query.Endpoint[string, SearchResult]
	store    store.Dispatcher
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	q   string
	sub *query.Subscription[SearchResult]
}

// SearchOption configures a Search.
type SearchOption func(*Search)

// WithSelectionStore closes the open movie on d whenever a search starts.
func WithSelectionStore(d store.Dispatcher) SearchOption {
	return func(s *Search) { s.store = d }
}

func WithSearchLogger(log *logger.Logger) SearchOption {
	return func(s *Search) { s.log = log }
}

// NewSearch creates an idle search. Close releases it.
func NewSearch(c *query.Cache, api *API, opts ...SearchOption) *Search {
	s := &Search{cache: c, endpoint: api.Search, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// SetQuery switches to q. Queries shorter than MinQueryLength clear the
// results without a network call.
func (s *Search) SetQuery(ctx context.Context, q string) {
	var next *query.Subscription[SearchResult]
	if utf8.RuneCountInString(q) >= MinQueryLength {
		next = query.Subscribe(s.ctx, s.cache, s.endpoint, q)
	}

	s.mu.Lock()
	prev := s.sub
	s.q, s.sub = q, next
	s.mu.Unlock()

	if prev != nil {
		prev.Unsubscribe()
	}
	if next != nil && s.store != nil {
		if err := s.store.Dispatch(ctx, CloseMovie{}); err != nil {
			s.log.Warn("closing selected movie failed", logger.ErrorFields("search", err))
		}
	}
}

// View returns the current results.
func (s *Search) View() SearchView {
	s.mu.Lock()
	q, sub := s.q, s.sub
	s.mu.Unlock()
	if sub == nil {
		return viewOf(q, query.State[SearchResult]{})
	}
	return viewOf(q, sub.State())
}

// Wait blocks until the current query settles.
func (s *Search) Wait(ctx context.Context) (SearchView, error) {
	s.mu.Lock()
	q, sub := s.q, s.sub
	s.mu.Unlock()
	if sub == nil {
		return viewOf(q, query.State[SearchResult]{}), nil
	}
	st, err := sub.Wait(ctx)
	return viewOf(q, st), err
}

// Close releases the current subscription.
func (s *Search) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	s.cancel()
}

func viewOf(q string, st query.State[SearchResult]) SearchView {
	v := SearchView{Query: q, Movies: []Movie{}}
	if utf8.RuneCountInString(q) < MinQueryLength {
		v.Hint = MessageTooShort
		return v
	}
	v.IsLoading = st.IsFetching
	switch {
	case st.IsError():
		v.Error = st.Error
	case st.HasData:
		v.Movies = st.Data.Search
	}
	return v
}
