package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// getJSONBody performs one GET through the breaker and returns the body of a
// 200 response. Any other outcome, including an open breaker, is a ProviderError.
func getJSONBody(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, provider, url string, header http.Header) ([]byte, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &ProviderError{Provider: provider, Op: "build request", Err: err}
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, &ProviderError{Provider: provider, Op: "fetch", Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &ProviderError{Provider: provider, Op: "read body", Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &ProviderError{
				Provider:   provider,
				Op:         "fetch",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", truncate(body, 200)),
			}
		}
		return body, nil
	})
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ProviderError{Provider: provider, Op: "circuit", Err: err}
	}
	return result.([]byte), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
