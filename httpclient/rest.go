package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// TypedResponse is a response with its JSON body decoded into T.
type TypedResponse[T any] struct {
	StatusCode int
	Headers    map[string]string
	Data       T
}

// Get performs a GET and decodes the JSON body into T. A body that does not
// decode yields an ErrCodeDecode error.
func Get[T any](a *Adapter, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](a, ctx, http.MethodGet, path, nil, opts...)
}

// Post sends body as JSON and decodes the JSON response into T.
func Post[T any](a *Adapter, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](a, ctx, http.MethodPost, path, body, opts...)
}

func doTyped[T any](a *Adapter, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var data T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, NewDecodeError(resp.StatusCode, resp.Body, err)
		}
	}
	return &TypedResponse[T]{StatusCode: resp.StatusCode, Headers: resp.Headers, Data: data}, nil
}
