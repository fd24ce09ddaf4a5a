// Copyright 2026 lkml-mcp project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package archive

import (
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// RetryPolicy layers a bounded exponential-backoff retry on top of the
// single-attempt Client. Core fetch calls never retry on their own;
// callers that want retries wrap the transport they hand to
// NewClientWithHTTP.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
	}
}

// Wrap returns a RoundTripper that retries transient failures (5xx and
// temporary network errors) of idempotent GETs.
func (p RetryPolicy) Wrap(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return rehttp.NewTransport(base,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(p.MaxRetries),
			rehttp.RetryHTTPMethods(http.MethodGet),
			rehttp.RetryAny(
				rehttp.RetryStatuses(
					http.StatusInternalServerError,
					http.StatusBadGateway,
					http.StatusServiceUnavailable,
					http.StatusGatewayTimeout,
				),
				rehttp.RetryTemporaryErr(),
			),
		),
		rehttp.ExpJitterDelay(p.BaseDelay, p.MaxDelay),
	)
}

// Client builds a ready retrying HTTP client with the given overall
// per-call timeout.
func (p RetryPolicy) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: p.Wrap(nil),
	}
}
