// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"io"
	"net/http"
)

// Head checks plain reachability of a URL with a HEAD request. Redirects are
// followed by the client; the final status decides.
type Head struct {
	opts Options
}

// NewHead creates a generic reachability prober.
func NewHead(opts Options) *Head {
	return &Head{opts: opts}
}

// Name implements Prober.
func (h *Head) Name() string { return ProviderGeneric }

// Probe reports live for a final status of 200 or 206.
func (h *Head) Probe(ctx context.Context, target string) (Result, error) {
	req, err := h.opts.newRequest(ctx, http.MethodHead, target)
	if err != nil {
		return Result{}, &Error{Sentinel: ErrInvalidTarget, Provider: ProviderGeneric, Target: target, Err: err}
	}

	resp, err := h.opts.Client.Do(req)
	if err != nil {
		return Result{}, transportError(ProviderGeneric, target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	return Result{
		Live:       resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent,
		StatusCode: resp.StatusCode,
	}, nil
}
