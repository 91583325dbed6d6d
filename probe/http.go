package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/bjaus/waiter"
)

// maxBody caps how much of a response body one attempt keeps.
const maxBody = 1 << 20

// HTTPResult is one observation of an HTTP endpoint.
type HTTPResult struct {
	Status int
	Body   []byte
}

// JSONString extracts a value from the response body by path and
// renders it as a string. Keys address objects, integers address
// arrays. It returns "" when the path does not resolve.
func (r HTTPResult) JSONString(path ...any) string {
	if len(r.Body) == 0 {
		return ""
	}
	return jsoniter.Get(r.Body, path...).ToString()
}

// HTTP returns an operation that performs one request per attempt.
// Any received response is a value, whatever its status; transport
// errors are operation failures. A nil client uses http.DefaultClient.
func HTTP(client *http.Client, method, url string) waiter.Operation[HTTPResult] {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (HTTPResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return HTTPResult{}, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return HTTPResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return HTTPResult{}, fmt.Errorf("read body: %w", err)
		}
		return HTTPResult{Status: resp.StatusCode, Body: body}, nil
	}
}
