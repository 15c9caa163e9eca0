package movies

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

// WatchedMovie is a rated entry of the watched list.
type WatchedMovie struct {
	ImdbID     string  `json:"imdbID" validate:"required"`
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Poster     string  `json:"poster"`
	ImdbRating float64 `json:"imdbRating"`
	Runtime    int     `json:"runtime"`
	UserRating int     `json:"userRating" validate:"min=1,max=10"`
}

// NewWatched builds a watched entry from d. Unparsable ratings and
// runtimes ("N/A") become zero.
func NewWatched(d Details, userRating int) (WatchedMovie, error) {
	w := WatchedMovie{
		ImdbID:     d.ImdbID,
		Title:      d.Title,
		Year:       d.Year,
		Poster:     d.Poster,
		UserRating: userRating,
	}
	w.ImdbRating, _ = strconv.ParseFloat(d.ImdbRating, 64)
	if fields := strings.Fields(d.Runtime); len(fields) > 0 {
		w.Runtime, _ = strconv.Atoi(fields[0])
	}
	if err := validation.Validate(w); err != nil {
		return WatchedMovie{}, err
	}
	return w, nil
}

const (
	ActionAddWatched    = "watched/add"
	ActionRemoveWatched = "watched/remove"
	ActionLoadWatched   = "watched/load"
	ActionSelectMovie   = "selection/select"
	ActionCloseMovie    = "selection/close"
)

// AddWatched is ignored when the movie is already on the list.
type AddWatched struct {
	Movie WatchedMovie `json:"movie"`
}

type RemoveWatched struct {
	ImdbID string `json:"imdbID" validate:"required"`
}

// LoadWatched replaces the list, typically with persisted entries.
type LoadWatched struct {
	Movies []WatchedMovie `json:"movies"`
}

// SelectMovie toggles: selecting the open movie closes it.
type SelectMovie struct {
	ImdbID string `json:"imdbID" validate:"required"`
}

type CloseMovie struct{}

func (AddWatched) Type() string    { return ActionAddWatched }
func (RemoveWatched) Type() string { return ActionRemoveWatched }
func (LoadWatched) Type() string   { return ActionLoadWatched }
func (SelectMovie) Type() string   { return ActionSelectMovie }
func (CloseMovie) Type() string    { return ActionCloseMovie }

func reduceWatched(list []WatchedMovie, action store.Action) []WatchedMovie {
	switch a := action.(type) {
	case AddWatched:
		if IsWatched(list, a.Movie.ImdbID) {
			return list
		}
		next := make([]WatchedMovie, 0, len(list)+1)
		return append(append(next, list...), a.Movie)
	case RemoveWatched:
		return slices.DeleteFunc(slices.Clone(list), func(m WatchedMovie) bool { return m.ImdbID == a.ImdbID })
	case LoadWatched:
		return slices.Clone(a.Movies)
	}
	return list
}

func reduceSelection(selected string, action store.Action) string {
	switch a := action.(type) {
	case SelectMovie:
		if selected == a.ImdbID {
			return ""
		}
		return a.ImdbID
	case CloseMovie:
		return ""
	}
	return selected
}

var (
	WatchedSlice = store.NewSlice("watched", []WatchedMovie{}, reduceWatched,
		store.WithEqual(slices.Equal[[]WatchedMovie]))
	SelectionSlice = store.NewSlice("selection", "", reduceSelection)
)

// NewStore combines the watched list, the selection and the query cache
// mirror. Pass it to query.WithStore with the OMDb endpoint names.
func NewStore(opts ...store.Option[*store.State]) *store.Store[*store.State] {
	root := store.Combine(query.APISlice, WatchedSlice, SelectionSlice)
	return store.New(root.Reduce, root.Initial(), opts...)
}

// IsWatched reports whether id is on list.
func IsWatched(list []WatchedMovie, id string) bool {
	return slices.ContainsFunc(list, func(m WatchedMovie) bool { return m.ImdbID == id })
}

// Summary aggregates the watched list.
type Summary struct {
	Count         int     `json:"count"`
	AvgImdbRating float64 `json:"avgImdbRating"`
	AvgUserRating float64 `json:"avgUserRating"`
	AvgRuntime    float64 `json:"avgRuntime"`
}

// Summarize averages ratings and runtimes; an empty list yields zeros.
func Summarize(list []WatchedMovie) Summary {
	s := Summary{Count: len(list)}
	if s.Count == 0 {
		return s
	}
	n := float64(s.Count)
	for _, m := range list {
		s.AvgImdbRating += m.ImdbRating / n
		s.AvgUserRating += float64(m.UserRating) / n
		s.AvgRuntime += float64(m.Runtime) / n
	}
	return s
}

// CountLabel is "1 movie" or "N movies".
func (s Summary) CountLabel() string {
	if s.Count == 1 {
		return "1 movie"
	}
	return strconv.Itoa(s.Count) + " movies"
}
