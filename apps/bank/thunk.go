package bank

import (
	"context"
	"strings"
	"sync"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/query"
	"github.com/kbukum/statekit/store"
)

// Converter builds deposit actions that convert foreign currency first.
// Request IDs are monotonic per Converter.
type Converter struct {
	rates Rates
	local string
	log   *logger.Logger

	// mu orders starting a conversion against settling one, so a settle
	// never races a newer ConvertingCurrency.
	mu  sync.Mutex
	seq uint64
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithLocalCurrency overrides LocalCurrency.
func WithLocalCurrency(code string) ConverterOption {
	return func(c *Converter) { c.local = strings.ToUpper(code) }
}

// WithConverterLogger sets the logger for conversion failures.
func WithConverterLogger(log *logger.Logger) ConverterOption {
	return func(c *Converter) { c.log = log }
}

// NewConverter creates a Converter backed by rates.
func NewConverter(rates Rates, opts ...ConverterOption) *Converter {
	c := &Converter{rates: rates, local: LocalCurrency, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deposit returns a plain Deposit when currency is local (or empty) and a
// thunk otherwise. The thunk dispatches ConvertingCurrency, waits for the
// conversion and settles with DepositConverted, ConversionFailed or, when ctx
// ends first, ConversionCancelled. A failed conversion is also returned, and
// a conversion replaced by a newer one returns errors.Superseded.
func (c *Converter) Deposit(amount float64, currency string) store.Action {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == c.local {
		return Deposit{Amount: amount}
	}
	return store.Thunk[*store.State](func(ctx context.Context, dispatch store.DispatchFunc, getState func() *store.State) error {
		c.mu.Lock()
		c.seq++
		id := c.seq
		err := dispatch(ctx, ConvertingCurrency{RequestID: id})
		c.mu.Unlock()
		if err != nil {
			return err
		}

		converted, err := c.rates.Execute(ctx, Conversion{Amount: amount, From: currency, To: c.local})
		settle := context.WithoutCancel(ctx)
		if err != nil && ctx.Err() != nil {
			_ = dispatch(settle, ConversionCancelled{RequestID: id})
			return errors.Cancelled("currency conversion").WithCause(err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if AccountSlice.Get(getState()).PendingRequest != id {
			return errors.Superseded("currency conversion").WithDetail("request_id", id)
		}
		if err != nil {
			c.log.WithContext(ctx).Warn("currency conversion failed", logger.Fields(
				"request_id", id,
				"from", currency,
				logger.FieldError, err.Error(),
			))
			if derr := dispatch(settle, ConversionFailed{RequestID: id, Message: query.ErrorMessage(err)}); derr != nil {
				return derr
			}
			return errors.ExternalServiceError(c.rates.Name(), err)
		}
		return dispatch(settle, DepositConverted{RequestID: id, Amount: converted})
	})
}
