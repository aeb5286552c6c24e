package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// skippedSchemes are hrefs that never point to a page.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Normalizer canonicalizes and filters candidate links.
// A Normalizer holds only configuration and is safe for concurrent use.
type Normalizer struct {
	ignorePatterns []string
	followPatterns []string
	excludeSelf    bool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithIgnorePatterns excludes links whose path matches any pattern.
// Patterns like "/admin/*" or "*.pdf" are supported.
func WithIgnorePatterns(patterns ...string) NormalizerOption {
	return func(n *Normalizer) {
		n.ignorePatterns = append(n.ignorePatterns, patterns...)
	}
}

// WithFollowPatterns keeps only links whose path matches a pattern.
func WithFollowPatterns(patterns ...string) NormalizerOption {
	return func(n *Normalizer) {
		n.followPatterns = append(n.followPatterns, patterns...)
	}
}

// WithExcludeSelf drops links that point back to the page they were found on.
func WithExcludeSelf(exclude bool) NormalizerOption {
	return func(n *Normalizer) {
		n.excludeSelf = exclude
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize resolves hrefs against pageURL and returns those that share the
// page's origin, contain no fragment marker and pass the configured filters.
// The result keeps first-seen order and holds no duplicates.
//
// Normalize performs no I/O. It fails only when pageURL is not an absolute
// URL; hrefs that cannot be parsed are skipped.
func (n *Normalizer) Normalize(pageURL string, hrefs []string) (*model.LinkSet, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q: not absolute", pageURL)
	}
	base = canonicalize(base)
	origin := Origin(base)
	self := withoutFragment(base).String()

	set := model.NewLinkSet()
	for _, href := range hrefs {
		link, ok := n.resolve(base, href)
		if !ok {
			continue
		}
		if Origin(link) != origin {
			continue
		}
		s := link.String()
		if n.excludeSelf && s == self {
			continue
		}
		if !allowedPath(link.Path, n.ignorePatterns, n.followPatterns) {
			continue
		}
		set.Add(s)
	}
	return set, nil
}

// resolve turns one href into a canonical absolute URL.
func (n *Normalizer) resolve(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.Contains(href, "#") {
		return nil, false
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return nil, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return canonicalize(base.ResolveReference(ref)), true
}

// Origin returns scheme://host[:port] of u with the default port omitted.
func Origin(u *url.URL) string {
	c := canonicalize(u)
	return c.Scheme + "://" + c.Host
}

// canonicalize returns a copy of u with a lowercase scheme and host, no
// default port and a "/" path for bare hosts.
func canonicalize(u *url.URL) *url.URL {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	host := strings.ToLower(c.Host)
	switch {
	case c.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case c.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	c.Host = host
	if c.Host != "" && c.Path == "" && c.Opaque == "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return &c
}

func withoutFragment(u *url.URL) *url.URL {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return &c
}
