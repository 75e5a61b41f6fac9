// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// twitchLiveMarker appears in the channel page's structured data only while
// the channel is broadcasting.
var twitchLiveMarker = []byte(`"isLiveBroadcast":true`)

// Twitch detects a live channel by scanning its public page for the live
// broadcast marker.
type Twitch struct {
	opts    Options
	baseURL string
}

// NewTwitch creates a Twitch prober. baseURL is the site root, e.g.
// https://www.twitch.tv.
func NewTwitch(opts Options, baseURL string) *Twitch {
	return &Twitch{opts: opts, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Prober.
func (t *Twitch) Name() string { return ProviderTwitch }

// Probe fetches the channel page and reports live when the marker occurs
// within the body cap. The HTTP status is not consulted.
func (t *Twitch) Probe(ctx context.Context, channel string) (Result, error) {
	if channel == "" {
		return Result{}, &Error{Sentinel: ErrInvalidTarget, Provider: ProviderTwitch, Target: channel}
	}
	target := t.baseURL + "/" + url.PathEscape(channel)

	req, err := t.opts.newRequest(ctx, http.MethodGet, target)
	if err != nil {
		return Result{}, &Error{Sentinel: ErrInvalidTarget, Provider: ProviderTwitch, Target: channel, Err: err}
	}

	resp, err := t.opts.Client.Do(req)
	if err != nil {
		return Result{}, transportError(ProviderTwitch, channel, err)
	}
	defer resp.Body.Close()

	live, err := scanFor(resp.Body, twitchLiveMarker, t.opts.MaxBodyBytes)
	res := Result{Live: live, StatusCode: resp.StatusCode}
	switch {
	case errors.Is(err, errCapExceeded):
		return res, &Error{Sentinel: ErrBodyTooLarge, Provider: ProviderTwitch, Target: channel, Status: resp.StatusCode}
	case err != nil:
		return res, transportError(ProviderTwitch, channel, err)
	}
	return res, nil
}
