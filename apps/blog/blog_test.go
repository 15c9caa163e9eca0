package blog

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/scope"
)

var fixture = []Post{
	{Title: "virtual protocol", Body: "We need to hack the neural SQL bus!"},
	{Title: "digital panel", Body: "Try to parse the TCP feed."},
	{Title: "Neural array", Body: "Reboot the USB port."},
}

func TestPostsRequireSearchProvider(t *testing.T) {
	_, _, err := ProvidePosts(context.Background(), fixture, logger.Nop())
	if !stderrors.Is(err, scope.ErrOutsideProvider) {
		t.Fatalf("expected outside-provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "SearchContext was used outside") {
		t.Errorf("error should name the missing provider: %v", err)
	}

	if _, err := UsePosts(context.Background()); err == nil || !strings.Contains(err.Error(), "PostContext") {
		t.Errorf("UsePosts outside provider: %v", err)
	}
}

func TestSearchFiltersPosts(t *testing.T) {
	ctx, search := ProvideSearch(context.Background(), logger.Nop())
	ctx, posts, err := ProvidePosts(ctx, fixture, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer posts.Close()

	if got, _ := UsePosts(ctx); got != posts {
		t.Fatal("UsePosts should return the installed provider")
	}

	var seen [][]Post
	posts.Subscribe(func(p []Post) { seen = append(seen, p) })

	search.SetQuery("NEURAL")
	want := []Post{fixture[0], fixture[2]}
	if diff := cmp.Diff(want, posts.Visible()); diff != "" {
		t.Errorf("filtered posts mismatch (-want +got):\n%s", diff)
	}

	added := Post{Title: "neural driver", Body: "Index it."}
	posts.Add(added)
	want = []Post{added, fixture[0], fixture[2]}
	if diff := cmp.Diff(want, posts.Visible()); diff != "" {
		t.Errorf("new posts go first (-want +got):\n%s", diff)
	}
	if len(posts.All()) != 4 {
		t.Errorf("All() = %d posts", len(posts.All()))
	}

	search.SetQuery("")
	if len(posts.Visible()) != 4 {
		t.Errorf("empty query shows everything, got %d", len(posts.Visible()))
	}

	posts.Clear()
	if len(posts.Visible()) != 0 || len(posts.All()) != 0 {
		t.Error("Clear must empty the list")
	}
	if len(seen) != 4 {
		t.Errorf("subscriber saw %d changes, want 4", len(seen))
	}
}

func TestSearchWithoutMatchesIsEmpty(t *testing.T) {
	search := NewSearch(logger.Nop())
	posts := NewPosts(search, fixture, logger.Nop())
	defer posts.Close()

	search.SetQuery("kubernetes")
	if got := posts.Visible(); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestRandomPosts(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	posts := RandomPosts(r, InitialPosts)
	if len(posts) != InitialPosts {
		t.Fatalf("got %d posts", len(posts))
	}
	for _, p := range posts {
		if len(strings.Fields(p.Title)) < 2 || p.Body == "" || strings.ContainsAny(p.Body, "{}") {
			t.Errorf("malformed post %+v", p)
		}
	}
	again := RandomPosts(rand.New(rand.NewPCG(1, 2)), InitialPosts)
	if diff := cmp.Diff(posts, again); diff != "" {
		t.Errorf("same seed, same posts (-first +second):\n%s", diff)
	}
}

func TestThemeToggle(t *testing.T) {
	ctx, theme := ProvideTheme(context.Background())
	got, err := UseTheme(ctx)
	if err != nil || got != theme {
		t.Fatalf("UseTheme = %v, %v", got, err)
	}

	var changes []bool
	theme.Subscribe(func(d bool) { changes = append(changes, d) })
	theme.Toggle()
	theme.Toggle()
	if diff := cmp.Diff([]bool{true, false}, changes); diff != "" {
		t.Errorf("toggle changes (-want +got):\n%s", diff)
	}
	if theme.IsDark() {
		t.Error("two toggles return to light")
	}
}
