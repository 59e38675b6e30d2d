package ramp

import (
	"math"
	"net/http"
	"time"
)

// Retry policy for the underlying transport: up to 6 total attempts with
// exponential backoff (base 0.8s) on transient statuses, applied to
// idempotent requests only. Writes are never retried here.
const (
	retryTotalAttempts = 6
	retryBackoffBase   = 800 * time.Millisecond
)

var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var retryMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// retryTransport wraps a RoundTripper with blocking exponential backoff.
type retryTransport struct {
	next http.RoundTripper
}

func newRetryTransport(next http.RoundTripper) *retryTransport {
	return &retryTransport{next: next}
}

// RoundTrip retries idempotent requests on transient failures. The sleep is
// a blocking wait on the calling goroutine, interrupted only by request
// context cancellation.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !retryMethods[req.Method] {
		return t.next.RoundTrip(req)
	}

	var resp *http.Response
	var err error

	for attempt := 1; attempt <= retryTotalAttempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(float64(retryBackoffBase) * math.Pow(2, float64(attempt-2)))
			select {
			case <-req.Context().Done():
				if err != nil {
					return nil, err
				}
				return nil, req.Context().Err()
			case <-time.After(wait):
			}
		}

		resp, err = t.next.RoundTrip(req)
		if err != nil {
			continue
		}
		if !retryStatuses[resp.StatusCode] || attempt == retryTotalAttempts {
			return resp, nil
		}
		resp.Body.Close()
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}
