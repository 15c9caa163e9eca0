package pokedex

import (
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/store"
)

const (
	ActionSelect = "pokedex/select"
	ActionBack   = "pokedex/back"
)

// Select shows the details of Name.
type Select struct {
	Name string `json:"name" validate:"required"`
}

// Back returns to the list.
type Back struct{}

func (Select) Type() string { return ActionSelect }
func (Back) Type() string   { return ActionBack }

func reduceCurrent(current string, action store.Action) string {
	switch a := action.(type) {
	case Select:
		return a.Name
	case Back:
		return ""
	}
	return current
}

// CurrentSlice holds the selected pokemon name; empty means the list view.
var CurrentSlice = store.NewSlice("pokedex", "", reduceCurrent)

// NewStore combines the selection with the query cache mirror. Pass it to
// query.WithStore so cache transitions land in query.APISlice.
func NewStore(opts ...store.Option[*store.State]) *store.Store[*store.State] {
	root := store.Combine(query.APISlice, CurrentSlice)
	return store.New(root.Reduce, root.Initial(), opts...)
}
