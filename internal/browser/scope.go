package browser

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
)

// siteOrigin returns the scheme://host[:port] origin of rawURL the way the
// browser spells it: lower case, default ports dropped.
func siteOrigin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if scheme == "" || host == "" {
		return "", fmt.Errorf("not an absolute URL: %s", rawURL)
	}

	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

// originPattern returns a Fetch request pattern that matches every URL of
// the origin of rawURL and nothing else.
func originPattern(rawURL string) (*fetch.RequestPattern, error) {
	origin, err := siteOrigin(rawURL)
	if err != nil {
		return nil, err
	}
	return &fetch.RequestPattern{
		URLPattern:   origin + "/*",
		RequestStage: fetch.RequestStageRequest,
	}, nil
}

// parseCookies splits a raw Cookie header value such as "a=1; b=2".
func parseCookies(raw string) ([]*http.Cookie, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	cookies, err := http.ParseCookie(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie %q: %w", raw, err)
	}
	return cookies, nil
}

// siteCookies binds cookies to the origin of rawURL. The browser then sends
// them to that host only, never to third-party subresources.
func siteCookies(cookies []*http.Cookie, rawURL string) ([]*network.CookieParam, error) {
	if len(cookies) == 0 {
		return nil, nil
	}
	origin, err := siteOrigin(rawURL)
	if err != nil {
		return nil, err
	}
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name:  c.Name,
			Value: c.Value,
			URL:   origin + "/",
			Path:  "/",
		})
	}
	return params, nil
}

// mergeHeaders returns the request headers with extra added. A header in
// extra replaces one of the same name regardless of case.
func mergeHeaders(request network.Headers, extra map[string]string) []*fetch.HeaderEntry {
	merged := make(map[string]string, len(request)+len(extra))
	names := make(map[string]string, len(request)+len(extra))
	for k, v := range request {
		key := strings.ToLower(k)
		names[key] = k
		merged[key] = fmt.Sprint(v)
	}
	for k, v := range extra {
		key := strings.ToLower(k)
		names[key] = k
		merged[key] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]*fetch.HeaderEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, &fetch.HeaderEntry{Name: names[k], Value: merged[k]})
	}
	return entries
}
