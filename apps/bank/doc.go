// Package bank is a two-slice store (account and customer) with banking
// rules and a currency-converting deposit thunk.
//
//	st := bank.NewStore()
//	conv := bank.NewConverter(bank.FrankfurterRates(adapter))
//	_ = st.Dispatch(ctx, bank.Deposit{Amount: 500})
//	_ = st.Dispatch(ctx, conv.Deposit(20, "USD"))
package bank
