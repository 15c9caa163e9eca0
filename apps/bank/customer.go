package bank

import (
	"time"

	"github.com/kbukum/statekit/store"
)

// Customer is the "customer" slice.
type Customer struct {
	FullName   string    `json:"fullName"`
	NationalID string    `json:"nationalId"`
	CreatedAt  time.Time `json:"createdAt"`
}

const (
	ActionCreateCustomer = "customer/createCustomer"
	ActionUpdateName     = "customer/updateName"
)

type CreateCustomer struct {
	FullName   string    `json:"fullName" validate:"required"`
	NationalID string    `json:"nationalId" validate:"required"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UpdateName struct {
	FullName string `json:"fullName" validate:"required"`
}

func (CreateCustomer) Type() string { return ActionCreateCustomer }
func (UpdateName) Type() string     { return ActionUpdateName }

// NewCustomer stamps CreatedAt with the current time.
func NewCustomer(fullName, nationalID string) CreateCustomer {
	return CreateCustomer{FullName: fullName, NationalID: nationalID, CreatedAt: time.Now().UTC()}
}

func ReduceCustomer(s Customer, action store.Action) Customer {
	switch a := action.(type) {
	case CreateCustomer:
		return Customer(a)
	case UpdateName:
		s.FullName = a.FullName
	}
	return s
}
