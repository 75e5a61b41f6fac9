// SPDX-License-Identifier: MIT

package checker

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/videolinks/statuscheck/internal/probe"
)

var (
	// ErrInvalidURL is returned for a link that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNoChannel is returned for a channel-provider URL without a channel name.
	ErrNoChannel = errors.New("no channel name in URL")
)

var (
	twitchHosts = map[string]struct{}{"twitch.tv": {}, "www.twitch.tv": {}}
	kickHosts   = map[string]struct{}{"kick.com": {}, "www.kick.com": {}}
)

// Route is the dispatch decision for one link.
type Route struct {
	Provider string // probe provider name
	Target   string // URL for the generic prober, channel name otherwise
	Host     string // normalised host name
}

// Resolve picks the prober for rawURL by host.
func Resolve(rawURL string) (Route, error) {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Route{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	host := normalizeHost(u.Hostname())
	if host == "" {
		return Route{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	provider := probe.ProviderGeneric
	if _, ok := twitchHosts[host]; ok {
		provider = probe.ProviderTwitch
	} else if _, ok := kickHosts[host]; ok {
		provider = probe.ProviderKick
	}

	if provider == probe.ProviderGeneric {
		return Route{Provider: provider, Target: trimmed, Host: host}, nil
	}
	channel := firstSegment(u.Path)
	if channel == "" {
		return Route{Provider: provider, Host: host}, fmt.Errorf("%w: %s", ErrNoChannel, provider)
	}
	return Route{Provider: provider, Target: channel, Host: host}, nil
}

// normalizeHost lower-cases host, drops a trailing root dot and converts
// internationalised names to their ASCII form.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

func firstSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}
