// Package errors defines AppError, the coded error type returned by statekit
// stores, query caches and scoped providers, and its JSON response form.
package errors
