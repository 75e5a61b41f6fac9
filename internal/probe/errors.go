// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// Sentinel errors for errors.Is checks at the entry boundary.
	ErrUnavailable   = errors.New("probe: host unreachable or transport failure")
	ErrTimeout       = errors.New("probe: request timed out")
	ErrBodyTooLarge  = errors.New("probe: response exceeds size cap")
	ErrBadResponse   = errors.New("probe: invalid response format or malformed data")
	ErrInvalidTarget = errors.New("probe: invalid target")
)

// Error wraps a sentinel with the provider and target that produced it.
// Response bodies are never included.
type Error struct {
	Sentinel error
	Provider string
	Target   string
	Status   int
	Err      error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Provider, e.Target, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Cause returns the nested lower-level error.
func (e *Error) Cause() error {
	return e.Err
}

// transportError classifies an error returned by http.Client.Do or a body read.
func transportError(provider, target string, err error) *Error {
	sentinel := ErrUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = ErrTimeout
	}
	return &Error{Sentinel: sentinel, Provider: provider, Target: target, Err: err}
}

// Kind names the sentinel behind err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, ErrBadResponse):
		return "bad_response"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
