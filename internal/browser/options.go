package browser

import (
	"log/slog"
	"time"
)

const (
	// DefaultNavigationTimeout bounds a single page load including the
	// network idle wait.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultIdleTime is how long the network must stay quiet.
	DefaultIdleTime = 500 * time.Millisecond

	// DefaultMaxInflight is the number of requests still allowed in flight
	// while the network counts as idle.
	DefaultMaxInflight = 2

	// DefaultWindowWidth and DefaultWindowHeight set the viewport. Some rules
	// (e.g. color contrast of off-screen elements) depend on it.
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 1024
)

// Option configures a Chrome loader.
type Option func(*Chrome)

// WithExecPath sets the Chrome executable. By default chromedp searches the
// usual install locations.
func WithExecPath(path string) Option {
	return func(c *Chrome) {
		c.execPath = path
	}
}

// WithRemoteURL connects to an already running Chrome through its DevTools
// websocket URL (ws://host:port/devtools/browser/<id>) instead of starting a
// browser process. The executable, headless, sandbox, user agent and window
// options only apply to a started process.
func WithRemoteURL(wsURL string) Option {
	return func(c *Chrome) {
		c.remoteURL = wsURL
	}
}

// WithHeadless toggles headless mode. Default is true.
func WithHeadless(headless bool) Option {
	return func(c *Chrome) {
		c.headless = headless
	}
}

// WithNoSandbox disables the Chrome sandbox, which is required when running
// as root inside containers.
func WithNoSandbox(noSandbox bool) Option {
	return func(c *Chrome) {
		c.noSandbox = noSandbox
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(c *Chrome) {
		c.userAgent = ua
	}
}

// WithWindowSize sets the viewport size.
func WithWindowSize(width, height int) Option {
	return func(c *Chrome) {
		if width > 0 && height > 0 {
			c.windowWidth = width
			c.windowHeight = height
		}
	}
}

// WithNavigationTimeout bounds each Load call.
func WithNavigationTimeout(d time.Duration) Option {
	return func(c *Chrome) {
		if d > 0 {
			c.navigationTimeout = d
		}
	}
}

// WithIdleTime sets how long the network must stay quiet before a page
// counts as loaded.
func WithIdleTime(d time.Duration) Option {
	return func(c *Chrome) {
		if d > 0 {
			c.idleTime = d
		}
	}
}

// WithMaxInflight sets how many requests may remain pending while the
// network counts as idle.
func WithMaxInflight(n int) Option {
	return func(c *Chrome) {
		if n >= 0 {
			c.maxInflight = n
		}
	}
}

// WithHeaders sets extra HTTP headers for the requests a page makes to its
// own origin. Requests to other origins are left untouched.
func WithHeaders(headers map[string]string) Option {
	return func(c *Chrome) {
		if len(headers) == 0 {
			return
		}
		if c.headers == nil {
			c.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithCookie sets cookies in Cookie header form ("a=1; b=2") for the origin
// of every loaded page. It is useful for auditing pages behind a login.
func WithCookie(cookie string) Option {
	return func(c *Chrome) {
		c.cookie = cookie
	}
}

// WithLogger sets the logger for browser events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chrome) {
		if logger != nil {
			c.logger = logger
		}
	}
}
