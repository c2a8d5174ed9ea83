// Package httpclient wraps outbound HTTP calls with an explicit, reproducible
// retry policy: bounded attempts, exponential backoff, fixed per-call timeout,
// and a fixed set of transient statuses. Nothing here relies on library
// defaults.
package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Transient HTTP statuses: expected to resolve on retry, as opposed to
// terminal statuses like 400/403/404 which are returned to the caller as-is.
var transientStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsTransientStatus reports whether an HTTP status is in the retryable set.
func IsTransientStatus(code int) bool {
	return transientStatuses[code]
}

// Response is the outcome of a Get: the final upstream status and raw body.
// Non-2xx terminal responses come back here rather than as errors so callers
// can distinguish, e.g., 404 from 500.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client is a resty-backed HTTP client with retry/backoff baked in.
type Client struct {
	rc *resty.Client
}

// New creates a client. retries is the number of retry attempts after the
// first call; backoff is the initial wait between attempts, doubling each
// retry. Backoff applies only between retries, never before the first call.
func New(timeout time.Duration, retries int, backoff time.Duration) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "ElDeber-LiveMetrics/1.0").
		SetRetryCount(retries).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff * (1 << 4)).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true // connection failure or timeout
			}
			return transientStatuses[r.StatusCode()]
		})

	rc.OnError(func(req *resty.Request, err error) {
		logrus.Debugf("HTTP request to %s failed: %v", req.URL, err)
	})

	return &Client{rc: rc}
}

// Get issues a GET with query params. It retries transient failures per the
// client's policy and returns the final response, whatever its status. A
// non-nil error means the transport itself failed on every attempt (the
// upstream was unreachable); there is no response to inspect in that case.
func (c *Client) Get(ctx context.Context, url string, params map[string]string) (*Response, error) {
	req := c.rc.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
