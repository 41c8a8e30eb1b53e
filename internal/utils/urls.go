// Package utils has URL helpers shared by the request handlers and the
// scraper.
package utils

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrNotAbsolute       = errors.New("url must be absolute")
	ErrUnsupportedScheme = errors.New("url scheme must be http or https")
)

// trackingParams are dropped from fetch URLs.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// ValidateTargetURL checks that raw is an absolute http(s) URL with a host.
func ValidateTargetURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrNotAbsolute
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrUnsupportedScheme
	}
	return u, nil
}

// FetchURL returns the form of raw the scraper requests: lowercase scheme,
// punycode host, default port removed, no credentials, no fragment and no
// tracking parameters. Path and the order of other parameters are kept.
func FetchURL(raw string) (string, error) {
	u, err := ValidateTargetURL(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	port := u.Port()
	if port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		kept := make([]string, 0, strings.Count(u.RawQuery, "&")+1)
		for _, pair := range strings.Split(u.RawQuery, "&") {
			key, _, _ := strings.Cut(pair, "=")
			if k, err := url.QueryUnescape(key); err == nil {
				if _, drop := trackingParams[strings.ToLower(k)]; drop {
					continue
				}
			}
			kept = append(kept, pair)
		}
		u.RawQuery = strings.Join(kept, "&")
	}
	return u.String(), nil
}
