package config

import (
	"net/url"
	"strings"
)

// SiteConfig holds site-specific configuration.
//
// Pointer fields distinguish "not set" from an explicit false so that a
// site entry can turn off a default.
type SiteConfig struct {
	// IncludeRoot audits the root page itself.
	IncludeRoot *bool `yaml:"include_root,omitempty"`

	// OnError is the page failure policy: "abort" or "skip".
	OnError string `yaml:"on_error,omitempty"`

	// Tags restricts the audit to rules carrying one of these tags.
	Tags []string `yaml:"tags,omitempty"`

	// Cookie is an HTTP cookie to send with every page request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in page requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are link path patterns to skip.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	// FollowPatterns are link path patterns to follow.
	// If specified, only links matching these patterns are audited.
	FollowPatterns []string `yaml:"follow_patterns,omitempty"`

	// ExcludeSelf drops links that point back to the root page.
	ExcludeSelf *bool `yaml:"exclude_self,omitempty"`
}

// File represents the structure of the .a11yscan configuration file.
type File struct {
	// Sites maps a root URL or a host to its configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for rootURL merged over the
// defaults. A site entry keyed by the exact URL wins over one keyed by host.
func (cf *File) GetSiteConfig(rootURL string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	site, ok := cf.lookup(rootURL)
	if !ok {
		return result
	}

	if site.IncludeRoot != nil {
		result.IncludeRoot = site.IncludeRoot
	}
	if site.OnError != "" {
		result.OnError = site.OnError
	}
	if len(site.Tags) > 0 {
		result.Tags = site.Tags
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	if site.ExcludeSelf != nil {
		result.ExcludeSelf = site.ExcludeSelf
	}
	return result
}

func (cf *File) lookup(rootURL string) (SiteConfig, bool) {
	if site, ok := cf.Sites[rootURL]; ok {
		return site, true
	}
	if site, ok := cf.Sites[strings.TrimSuffix(rootURL, "/")]; ok {
		return site, true
	}
	u, err := url.Parse(rootURL)
	if err != nil || u.Host == "" {
		return SiteConfig{}, false
	}
	if site, ok := cf.Sites[strings.ToLower(u.Host)]; ok {
		return site, true
	}
	site, ok := cf.Sites[strings.ToLower(u.Hostname())]
	return site, ok
}
