/*
 * Copyright 2026 Cisco Systems, Inc. and its affiliates.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpretry provides an http.RoundTripper that retries transient
// upstream failures with exponential backoff. The dashboard API rate
// limits with 403, so that status is retried alongside the 5xx family.
package httpretry

import (
	"io"
	"net/http"
	"time"
)

const (
	defaultMaxRetries    = 5
	defaultBackoffFactor = 200 * time.Millisecond
)

var retryStatuses = map[int]bool{
	http.StatusForbidden:           true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Transport retries idempotent requests against flaky vendor endpoints.
type Transport struct {
	Base          http.RoundTripper
	MaxRetries    int
	BackoffFactor time.Duration
}

// NewClient returns an http.Client wired with a retrying transport.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &Transport{},
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}

	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	factor := t.BackoffFactor
	if factor <= 0 {
		factor = defaultBackoffFactor
	}

	var (
		resp *http.Response
		err  error
	)

	for attempt := 0; ; attempt++ {
		resp, err = t.base().RoundTrip(req)

		retryable := err != nil || retryStatuses[resp.StatusCode]
		if !retryable || attempt >= maxRetries {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		// Backoff doubles per attempt, starting at the base factor.
		delay := factor << uint(attempt)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}
