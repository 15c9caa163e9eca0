// Package billsplit tracks balances with friends. A positive balance means
// the friend owes you; a negative one means you owe the friend.
package billsplit

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

const avatarURL = "https://i.pravatar.cc/48"

type Friend struct {
	ID      string  `json:"id"`
	Name    string  `json:"name" validate:"required"`
	Image   string  `json:"image" validate:"required,url"`
	Balance float64 `json:"balance"`
}

// InitialFriends seeds a new store.
var InitialFriends = []Friend{
	{ID: "118836", Name: "Clark", Image: avatarURL + "?u=118836", Balance: -7},
	{ID: "933372", Name: "Sarah", Image: avatarURL + "?u=933372", Balance: 20},
	{ID: "499476", Name: "Anthony", Image: avatarURL + "?u=499476", Balance: 0},
}

type State struct {
	Friends []Friend `json:"friends"`
	// Selected is the id of the friend the bill form is open for.
	Selected string `json:"selected,omitempty"`
}

// Payer says who paid the whole bill.
type Payer string

const (
	PayerUser   Payer = "user"
	PayerFriend Payer = "friend"
)

const (
	ActionAddFriend    = "friends/add"
	ActionSelectFriend = "friends/select"
	ActionSplitBill    = "friends/splitBill"
)

type AddFriend struct {
	Friend Friend `json:"friend"`
}

// SelectFriend toggles: selecting the selected friend deselects.
type SelectFriend struct {
	ID string `json:"id" validate:"required"`
}

// SplitBill adds Value to the selected friend's balance and closes the
// form. It is ignored when nobody is selected.
type SplitBill struct {
	Value float64 `json:"value"`
}

func (AddFriend) Type() string    { return ActionAddFriend }
func (SelectFriend) Type() string { return ActionSelectFriend }
func (SplitBill) Type() string    { return ActionSplitBill }

// NewFriend assigns an id and, when image is empty, an avatar.
func NewFriend(name, image string) (AddFriend, error) {
	id := uuid.NewString()
	if image == "" {
		image = avatarURL + "?u=" + id
	}
	f := Friend{ID: id, Name: name, Image: image}
	if err := validation.Validate(f); err != nil {
		return AddFriend{}, err
	}
	return AddFriend{Friend: f}, nil
}

// NewSplit computes the balance change for a bill of which you paid
// paidByUser. Both amounts must be positive and your share cannot exceed
// the bill.
func NewSplit(bill, paidByUser float64, payer Payer) (SplitBill, error) {
	v := validation.New().
		Positive("bill", bill).
		Positive("paid_by_user", paidByUser).
		Custom(paidByUser <= bill, "paid_by_user", "cannot exceed the bill").
		OneOf("payer", string(payer), []string{string(PayerUser), string(PayerFriend)})
	if err := v.Err(); err != nil {
		return SplitBill{}, err
	}
	paidByFriend := bill - paidByUser
	if payer == PayerFriend {
		return SplitBill{Value: -paidByFriend}, nil
	}
	return SplitBill{Value: paidByFriend}, nil
}

func Reduce(s State, action store.Action) State {
	switch a := action.(type) {
	case AddFriend:
		s.Friends = append(slices.Clip(s.Friends), a.Friend)
	case SelectFriend:
		if s.Selected == a.ID {
			s.Selected = ""
		} else {
			s.Selected = a.ID
		}
	case SplitBill:
		i := slices.IndexFunc(s.Friends, func(f Friend) bool { return f.ID == s.Selected })
		if i < 0 {
			return s
		}
		s.Friends = slices.Clone(s.Friends)
		s.Friends[i].Balance += a.Value
		s.Selected = ""
	}
	return s
}

// NewStore seeds the store with InitialFriends.
func NewStore(opts ...store.Option[State]) *store.Store[State] {
	return store.New(Reduce, State{Friends: slices.Clone(InitialFriends)}, opts...)
}

// SelectedFriend returns the friend the bill form is open for.
func SelectedFriend(s State) (Friend, error) {
	i := slices.IndexFunc(s.Friends, func(f Friend) bool { return f.ID == s.Selected })
	if i < 0 {
		return Friend{}, errors.NotFound("friend", s.Selected)
	}
	return s.Friends[i], nil
}

// Status describes who owes whom.
func (f Friend) Status() string {
	switch {
	case f.Balance < 0:
		return fmt.Sprintf("You owe %s ₹%s", f.Name, money(math.Abs(f.Balance)))
	case f.Balance > 0:
		return fmt.Sprintf("%s owes you ₹%s", f.Name, money(f.Balance))
	default:
		return fmt.Sprintf("You and %s are even", f.Name)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
