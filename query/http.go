package query

import (
	"context"
	"encoding/json"

	"github.com/kbukum/statekit/httpclient"
	"github.com/kbukum/statekit/provider"
)

// HTTPEndpoint builds a fetcher that sends build(arg) through a and decodes
// the JSON body into T. validate, when set, rejects bodies that decode but
// carry an application-level failure.
func HTTPEndpoint[A, T any](
	name string,
	a *httpclient.Adapter,
	build func(arg A) httpclient.Request,
	validate func(T) error,
) provider.RequestResponse[A, T] {
	return provider.Adapt[A, T, httpclient.Request, *httpclient.Response](a, name,
		func(_ context.Context, arg A) (httpclient.Request, error) {
			return build(arg), nil
		},
		func(resp *httpclient.Response) (T, error) {
			var data T
			if err := json.Unmarshal(resp.Body, &data); err != nil {
				return data, httpclient.NewDecodeError(resp.StatusCode, resp.Body, err)
			}
			if validate != nil {
				if err := validate(data); err != nil {
					return data, err
				}
			}
			return data, nil
		},
	)
}
