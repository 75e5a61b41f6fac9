// SPDX-License-Identifier: MIT

package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Kick asks the Kick channel API whether a channel's livestream is live.
type Kick struct {
	opts    Options
	baseURL string
}

// NewKick creates a Kick prober. baseURL is the channels endpoint, e.g.
// https://kick.com/api/v2/channels.
func NewKick(opts Options, baseURL string) *Kick {
	return &Kick{opts: opts, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Prober.
func (k *Kick) Name() string { return ProviderKick }

type kickChannel struct {
	Livestream json.RawMessage `json:"livestream"`
}

type kickLivestream struct {
	IsLive json.RawMessage `json:"is_live"`
}

// Probe reports live only when livestream.is_live is the JSON literal true.
// The body is parsed whatever the HTTP status.
func (k *Kick) Probe(ctx context.Context, channel string) (Result, error) {
	if channel == "" {
		return Result{}, &Error{Sentinel: ErrInvalidTarget, Provider: ProviderKick, Target: channel}
	}
	target := k.baseURL + "/" + url.PathEscape(channel)

	req, err := k.opts.newRequest(ctx, http.MethodGet, target)
	if err != nil {
		return Result{}, &Error{Sentinel: ErrInvalidTarget, Provider: ProviderKick, Target: channel, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.opts.Client.Do(req)
	if err != nil {
		return Result{}, transportError(ProviderKick, channel, err)
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode}
	body, err := readCapped(resp.Body, k.opts.MaxBodyBytes)
	switch {
	case errors.Is(err, errCapExceeded):
		return res, &Error{Sentinel: ErrBodyTooLarge, Provider: ProviderKick, Target: channel, Status: resp.StatusCode}
	case err != nil:
		return res, transportError(ProviderKick, channel, err)
	}

	live, err := kickIsLive(body)
	if err != nil {
		return res, &Error{Sentinel: ErrBadResponse, Provider: ProviderKick, Target: channel, Status: resp.StatusCode, Err: err}
	}
	res.Live = live
	return res, nil
}

// kickIsLive extracts livestream.is_live. A missing or null livestream is
// not live; so is any is_live value other than true.
func kickIsLive(body []byte) (bool, error) {
	var ch kickChannel
	if err := json.Unmarshal(body, &ch); err != nil {
		return false, err
	}
	ls := bytes.TrimSpace(ch.Livestream)
	if len(ls) == 0 || ls[0] != '{' {
		return false, nil
	}
	var stream kickLivestream
	if err := json.Unmarshal(ls, &stream); err != nil {
		return false, err
	}
	return bytes.Equal(bytes.TrimSpace(stream.IsLive), []byte("true")), nil
}
