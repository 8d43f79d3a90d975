// Package urlutil validates scan targets and produces the canonical URL form
// used for history matching.
package urlutil

import (
	"errors"
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

// Errors
var (
	ErrEmptyURL       = errors.New("empty url")
	ErrMissingHost    = errors.New("url is missing a host")
	ErrBadScheme      = errors.New("url scheme must be http or https")
	ErrNotAbsoluteURL = errors.New("url must be absolute")
)

// ValidateScanTarget checks that raw parses as an absolute http/https URL
// with a host. It returns the parsed URL on success.
func ValidateScanTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, ErrNotAbsoluteURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrBadScheme
	}
	if u.Host == "" {
		return nil, ErrMissingHost
	}
	return u, nil
}

// Canonical returns a deterministic lowercase form of raw used as the match
// key for history queries: lowercased scheme/host, punycoded IDN hosts,
// default ports and fragments dropped, trailing slash stripped (except root).
// Invalid input comes back lowercased and trimmed so lookups still behave.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""
	u.User = nil

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default ports only
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	if u.Path != "" {
		cleaned := path.Clean(u.Path)
		if cleaned == "." || cleaned == "/" {
			cleaned = ""
		}
		u.Path = strings.TrimRight(cleaned, "/")
	}

	return u.String()
}

// MatchesFilter reports whether the canonical form of candidate contains the
// canonical form of filter, case-insensitively. An empty filter matches
// everything, mirroring an unfiltered history query.
func MatchesFilter(candidate, filter string) bool {
	if strings.TrimSpace(filter) == "" {
		return true
	}
	return strings.Contains(Canonical(candidate), Canonical(filter))
}
