package blog

import (
	"context"
	"slices"
	"strings"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/scope"
)

// InitialPosts is how many random posts a new post provider starts with.
const InitialPosts = 30

type Post struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// Context keys. From fails with "<name> was used outside of its provider".
var (
	SearchKey = scope.NewKey[*Search]("SearchContext")
	PostsKey  = scope.NewKey[*Posts]("PostContext")
	ThemeKey  = scope.NewKey[*Theme]("ThemeContext")
)

// Search holds the search query.
type Search struct {
	query *scope.Provider[string]
}

func NewSearch(log *logger.Logger) *Search {
	return &Search{query: scope.NewProvider("search", "", scope.WithLogger[string](log))}
}

func (s *Search) Query() string        { return s.query.Get() }
func (s *Search) SetQuery(q string)    { s.query.Set(q) }
func (s *Search) Source() scope.Source { return s.query }

// ProvideSearch installs a new Search on ctx.
func ProvideSearch(ctx context.Context, log *logger.Logger) (context.Context, *Search) {
	s := NewSearch(log)
	return scope.With(ctx, SearchKey, s), s
}

// UseSearch returns the Search installed on ctx.
func UseSearch(ctx context.Context) (*Search, error) {
	return scope.From(ctx, SearchKey)
}

// Posts holds every post and the subset matching the search query.
type Posts struct {
	search  *Search
	all     *scope.Provider[[]Post]
	visible *scope.Derived[[]Post]
}

func equalPosts(a, b []Post) bool { return slices.Equal(a, b) }

// NewPosts starts with initial and filters it by search.
func NewPosts(search *Search, initial []Post, log *logger.Logger) *Posts {
	p := &Posts{
		search: search,
		all: scope.NewProvider("posts", slices.Clone(initial),
			scope.WithEqual(equalPosts), scope.WithLogger[[]Post](log)),
	}
	p.visible = scope.Derive("searchedPosts", p.filter, equalPosts, p.all, search.Source())
	return p
}

// ProvidePosts installs a Posts seeded with initial on ctx. ctx must carry
// a Search.
func ProvidePosts(ctx context.Context, initial []Post, log *logger.Logger) (context.Context, *Posts, error) {
	search, err := UseSearch(ctx)
	if err != nil {
		return ctx, nil, err
	}
	p := NewPosts(search, initial, log)
	return scope.With(ctx, PostsKey, p), p, nil
}

// UsePosts returns the Posts installed on ctx.
func UsePosts(ctx context.Context) (*Posts, error) {
	return scope.From(ctx, PostsKey)
}

// filter matches the query case-insensitively against "title body". An
// empty query matches everything.
func (p *Posts) filter() []Post {
	all := p.all.Get()
	q := strings.ToLower(p.search.Query())
	if q == "" {
		return all
	}
	out := make([]Post, 0, len(all))
	for _, post := range all {
		if strings.Contains(strings.ToLower(post.Title+" "+post.Body), q) {
			out = append(out, post)
		}
	}
	return out
}

// Visible returns the posts matching the current query.
func (p *Posts) Visible() []Post { return p.visible.Get() }

// All returns every post regardless of the query.
func (p *Posts) All() []Post { return p.all.Get() }

// Add puts post first.
func (p *Posts) Add(post Post) {
	p.all.Update(func(posts []Post) []Post {
		return append([]Post{post}, posts...)
	})
}

// Clear removes every post.
func (p *Posts) Clear() {
	p.all.Set([]Post{})
}

// Subscribe calls fn with the visible posts after each change.
func (p *Posts) Subscribe(fn func([]Post)) (unsubscribe func()) {
	return p.visible.Subscribe(fn)
}

// Close detaches the visible list from its sources.
func (p *Posts) Close() { p.visible.Close() }

// Theme is the dark mode toggle.
type Theme struct {
	dark *scope.Provider[bool]
}

func NewTheme() *Theme { return &Theme{dark: scope.NewProvider("theme", false)} }

func (t *Theme) IsDark() bool { return t.dark.Get() }

func (t *Theme) Toggle() { t.dark.Update(func(d bool) bool { return !d }) }

func (t *Theme) Subscribe(fn func(dark bool)) (unsubscribe func()) { return t.dark.Subscribe(fn) }

// ProvideTheme installs a new Theme on ctx.
func ProvideTheme(ctx context.Context) (context.Context, *Theme) {
	t := NewTheme()
	return scope.With(ctx, ThemeKey, t), t
}

func UseTheme(ctx context.Context) (*Theme, error) {
	return scope.From(ctx, ThemeKey)
}
