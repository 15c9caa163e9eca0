package bank

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/provider"
)

// LocalCurrency is the account's currency; deposits in it skip conversion.
const LocalCurrency = "INR"

// Conversion asks for Amount in From expressed in To.
type Conversion struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

// Rates converts amounts between currencies.
type Rates = provider.RequestResponse[Conversion, float64]

type frankfurterResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Rates  map[string]float64 `json:"rates"`
}

type frankfurter struct {
	adapter *httpclient.Adapter
}

// FrankfurterRates converts through the Frankfurter API
// (GET /latest?amount=&from=&to=) reached via a.
func FrankfurterRates(a *httpclient.Adapter) Rates {
	return &frankfurter{adapter: a}
}

func (f *frankfurter) Name() string { return "frankfurter" }

func (f *frankfurter) IsAvailable(ctx context.Context) bool { return f.adapter.IsAvailable(ctx) }

func (f *frankfurter) Execute(ctx context.Context, c Conversion) (float64, error) {
	resp, err := httpclient.Get[frankfurterResponse](f.adapter, ctx, "/latest",
		httpclient.WithQueryParam("amount", strconv.FormatFloat(c.Amount, 'f', -1, 64)),
		httpclient.WithQueryParam("from", c.From),
		httpclient.WithQueryParam("to", c.To),
	)
	if err != nil {
		return 0, err
	}
	v, ok := resp.Data.Rates[c.To]
	if !ok {
		return 0, errors.ExternalServiceError("frankfurter",
			fmt.Errorf("response has no rate for %s", c.To))
	}
	return v, nil
}
