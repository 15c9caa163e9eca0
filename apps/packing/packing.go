// Package packing is a travel packing list: items with quantities that can
// be packed, sorted and summarised.
package packing

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

type Item struct {
	ID          string `json:"id"`
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=1,max=10"`
	Packed      bool   `json:"packed"`
}

const (
	ActionAddItem    = "items/add"
	ActionDeleteItem = "items/delete"
	ActionToggleItem = "items/toggle"
	ActionClearItems = "items/clear"
)

// AddItem is ignored when the description is empty.
type AddItem struct {
	Item Item `json:"item"`
}

type DeleteItem struct {
	ID string `json:"id" validate:"required"`
}

// ToggleItem flips the packed flag.
type ToggleItem struct {
	ID string `json:"id" validate:"required"`
}

type ClearItems struct{}

func (AddItem) Type() string    { return ActionAddItem }
func (DeleteItem) Type() string { return ActionDeleteItem }
func (ToggleItem) Type() string { return ActionToggleItem }
func (ClearItems) Type() string { return ActionClearItems }

// NewItem validates the input and assigns a fresh id.
func NewItem(description string, quantity int) (AddItem, error) {
	item := Item{ID: uuid.NewString(), Description: description, Quantity: quantity}
	if err := validation.Validate(item); err != nil {
		return AddItem{}, err
	}
	return AddItem{Item: item}, nil
}

// Reduce applies item actions. The list is never modified in place.
func Reduce(items []Item, action store.Action) []Item {
	switch a := action.(type) {
	case AddItem:
		if a.Item.Description == "" {
			return items
		}
		return append(slices.Clip(items), a.Item)
	case DeleteItem:
		return slices.DeleteFunc(slices.Clone(items), func(it Item) bool { return it.ID == a.ID })
	case ToggleItem:
		i := slices.IndexFunc(items, func(it Item) bool { return it.ID == a.ID })
		if i < 0 {
			return items
		}
		next := slices.Clone(items)
		next[i].Packed = !next[i].Packed
		return next
	case ClearItems:
		return []Item{}
	}
	return items
}

// NewStore returns a store over the item list.
func NewStore(initial []Item, opts ...store.Option[[]Item]) *store.Store[[]Item] {
	if initial == nil {
		initial = []Item{}
	}
	return store.New(Reduce, initial, opts...)
}

// SortBy orders a view of the list.
type SortBy string

const (
	SortInput       SortBy = "input"
	SortDescription SortBy = "description"
	SortQuantity    SortBy = "quantity"
	SortPacked      SortBy = "packed"
)

// Sorted returns a sorted copy of items. Unknown orders keep input order.
// Sorting is stable, and descriptions are compared with locale-aware
// collation.
func Sorted(items []Item, by SortBy) []Item {
	out := slices.Clone(items)
	switch by {
	case SortDescription:
		c := collate.New(language.English)
		slices.SortStableFunc(out, func(a, b Item) int { return c.CompareString(a.Description, b.Description) })
	case SortQuantity:
		slices.SortStableFunc(out, func(a, b Item) int { return a.Quantity - b.Quantity })
	case SortPacked:
		slices.SortStableFunc(out, func(a, b Item) int { return boolInt(a.Packed) - boolInt(b.Packed) })
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Stats summarises the list.
type Stats struct {
	Items   int `json:"items"`
	Packed  int `json:"packed"`
	Percent int `json:"percent"`
}

func ComputeStats(items []Item) Stats {
	s := Stats{Items: len(items)}
	for _, it := range items {
		if it.Packed {
			s.Packed++
		}
	}
	if s.Items > 0 {
		s.Percent = int(math.Round(float64(s.Packed) / float64(s.Items) * 100))
	}
	return s
}

// Message is the footer line for s.
func (s Stats) Message() string {
	switch {
	case s.Items == 0:
		return "Start adding some items in your packing list 🚀"
	case s.Percent == 100:
		return "You got everything, ready to go! ✈️"
	default:
		return fmt.Sprintf("🧳You have %d items in your list, and you already packed %d (%d%%)", s.Items, s.Packed, s.Percent)
	}
}
