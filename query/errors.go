package query

import (
	stderrors "errors"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/httpclient"
)

// ErrorMessage is the default conversion of a fetch error into the message
// stored on a rejected entry.
func ErrorMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	var httpErr *httpclient.Error
	if stderrors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}
