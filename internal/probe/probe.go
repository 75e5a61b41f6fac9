// SPDX-License-Identifier: MIT

// Package probe implements the per-provider liveness checks.
//
// A Prober answers one question for one target: is it live right now.
// Transport failures, timeouts and malformed responses are returned as
// *Error values; callers treat any error as "not live".
package probe

import (
	"context"
	"net/http"
)

// Provider names.
const (
	ProviderGeneric = "generic"
	ProviderTwitch  = "twitch"
	ProviderKick    = "kick"
)

// Result is the outcome of one probe.
type Result struct {
	Live bool
	// StatusCode is the final HTTP status, 0 when no response was received.
	StatusCode int
}

// Prober checks the liveness of a single target. For the generic prober the
// target is an absolute URL; for channel providers it is the channel name.
type Prober interface {
	Name() string
	Probe(ctx context.Context, target string) (Result, error)
}

// Options are shared by all probers.
type Options struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
}

func (o Options) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	return req, nil
}
