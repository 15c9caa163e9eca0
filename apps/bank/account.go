package bank

import "github.com/kbukum/statekit/store"

// Account is the "account" slice.
type Account struct {
	Balance     float64 `json:"balance"`
	Loan        float64 `json:"loan"`
	LoanPurpose string  `json:"loanPurpose"`
	// IsLoading is set while a currency conversion is pending.
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
	// PendingRequest is the only conversion allowed to complete.
	PendingRequest uint64 `json:"pendingRequest,omitempty"`
}

const (
	ActionDeposit             = "account/deposit"
	ActionWithdraw            = "account/withdraw"
	ActionRequestLoan         = "account/requestLoan"
	ActionPayLoan             = "account/payLoan"
	ActionConvertingCurrency  = "account/convertingCurrency"
	ActionDepositConverted    = "account/depositConverted"
	ActionConversionFailed    = "account/conversionFailed"
	ActionConversionCancelled = "account/conversionCancelled"
)

type Deposit struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// Withdraw has no balance check unless the store was built with
// WithOverdraftGuard.
type Withdraw struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

// RequestLoan is ignored while a loan is outstanding.
type RequestLoan struct {
	Amount  float64 `json:"amount" validate:"gt=0"`
	Purpose string  `json:"purpose" validate:"required"`
}

type PayLoan struct{}

type ConvertingCurrency struct {
	RequestID uint64 `json:"requestId"`
}

type DepositConverted struct {
	RequestID uint64  `json:"requestId"`
	Amount    float64 `json:"amount"`
}

type ConversionFailed struct {
	RequestID uint64 `json:"requestId"`
	Message   string `json:"message"`
}

// ConversionCancelled clears the loading flag without recording an error.
type ConversionCancelled struct {
	RequestID uint64 `json:"requestId"`
}

func (Deposit) Type() string             { return ActionDeposit }
func (Withdraw) Type() string            { return ActionWithdraw }
func (RequestLoan) Type() string         { return ActionRequestLoan }
func (PayLoan) Type() string             { return ActionPayLoan }
func (ConvertingCurrency) Type() string  { return ActionConvertingCurrency }
func (DepositConverted) Type() string    { return ActionDepositConverted }
func (ConversionFailed) Type() string    { return ActionConversionFailed }
func (ConversionCancelled) Type() string { return ActionConversionCancelled }

// AccountReducer returns the account reducer. overdraftGuard turns withdrawals
// beyond the balance into no-ops.
func AccountReducer(overdraftGuard bool) store.Reducer[Account] {
	return func(s Account, action store.Action) Account {
		switch a := action.(type) {
		case Deposit:
			s.Balance += a.Amount
		case Withdraw:
			if overdraftGuard && a.Amount > s.Balance {
				return s
			}
			s.Balance -= a.Amount
		case RequestLoan:
			if s.Loan > 0 {
				return s
			}
			s.Balance += a.Amount
			s.Loan = a.Amount
			s.LoanPurpose = a.Purpose
		case PayLoan:
			s.Balance -= s.Loan
			s.Loan = 0
			s.LoanPurpose = ""
		case ConvertingCurrency:
			s.IsLoading = true
			s.Error = ""
			s.PendingRequest = a.RequestID
		case DepositConverted:
			if a.RequestID != s.PendingRequest {
				return s
			}
			s.Balance += a.Amount
			s.IsLoading = false
			s.PendingRequest = 0
		case ConversionFailed:
			if a.RequestID != s.PendingRequest {
				return s
			}
			s.IsLoading = false
			s.Error = a.Message
			s.PendingRequest = 0
		case ConversionCancelled:
			if a.RequestID != s.PendingRequest {
				return s
			}
			s.IsLoading = false
			s.PendingRequest = 0
		}
		return s
	}
}
