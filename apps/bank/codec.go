package bank

import (
	"encoding/json"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/store"
	"github.com/kbukum/statekit/validation"
)

// ActionDepositCurrency is the wire type of a converting deposit.
const ActionDepositCurrency = "account/depositCurrency"

// DepositCurrency is the payload of ActionDepositCurrency.
type DepositCurrency struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

// Codec decodes the bank's public actions from JSON envelopes, validating
// payloads on the way in. Completion actions of the conversion thunk are not
// registered. conv may be nil, leaving ActionDepositCurrency unregistered.
func Codec(conv *Converter) *store.Codec {
	c := store.NewCodec()
	register[Deposit](c)
	register[Withdraw](c)
	register[RequestLoan](c)
	store.RegisterJSON[PayLoan](c)
	register[CreateCustomer](c)
	register[UpdateName](c)

	if conv != nil {
		c.Register(ActionDepositCurrency, func(payload json.RawMessage) (store.Action, error) {
			var p DepositCurrency
			if err := decodeValid(payload, &p); err != nil {
				return nil, err
			}
			return conv.Deposit(p.Amount, p.Currency), nil
		})
	}
	return c
}

func register[A store.Action](c *store.Codec) {
	var zero A
	c.Register(zero.Type(), func(payload json.RawMessage) (store.Action, error) {
		var a A
		if err := decodeValid(payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	})
}

func decodeValid(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.InvalidInput("payload", "payload is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.InvalidInput("payload", err.Error())
	}
	return validation.Validate(v)
}
