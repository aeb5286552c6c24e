package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Chrome loads pages in a headless Chrome controlled through chromedp.
//
// One browser process serves the whole run. Every Load opens a new tab in a
// new browser context, which gives each page its own cookie jar, storage and
// cache.
//
// The configured cookie is bound to the origin of the loaded page and extra
// headers are added to requests for that origin only.
type Chrome struct {
	execPath          string
	remoteURL         string
	headless          bool
	noSandbox         bool
	userAgent         string
	windowWidth       int
	windowHeight      int
	navigationTimeout time.Duration
	idleTime          time.Duration
	maxInflight       int
	cookie            string
	cookies           []*http.Cookie
	headers           map[string]string
	logger            *slog.Logger

	mu            sync.Mutex
	closed        bool
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewChrome starts a browser process, or connects to a running one when
// WithRemoteURL is given. The returned Chrome must be closed.
func NewChrome(ctx context.Context, opts ...Option) (*Chrome, error) {
	c := &Chrome{
		headless:          true,
		windowWidth:       DefaultWindowWidth,
		windowHeight:      DefaultWindowHeight,
		navigationTimeout: DefaultNavigationTimeout,
		idleTime:          DefaultIdleTime,
		maxInflight:       DefaultMaxInflight,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cookies, err := parseCookies(c.cookie)
	if err != nil {
		return nil, err
	}
	c.cookies = cookies

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if c.remoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, c.remoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp", "level", "error")
		}),
	)

	// Running with no actions launches or attaches to the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	c.allocCancel = allocCancel

	c.logger.Debug("browser started",
		"headless", c.headless,
		"execPath", c.execPath,
		"remoteURL", c.remoteURL,
	)
	return c, nil
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+5)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	if !c.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}
	if c.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.userAgent))
	}
	if c.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	opts = append(opts, chromedp.WindowSize(c.windowWidth, c.windowHeight))
	return opts
}

// Load navigates a new isolated page to url and waits for network idle.
func (c *Chrome) Load(ctx context.Context, url string) (Page, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &NavigationError{URL: url, Err: ErrBrowserClosed}
	}
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx, chromedp.WithNewBrowserContext())
	c.mu.Unlock()

	page := &chromePage{ctx: tabCtx, cancel: tabCancel, url: url}

	// chromedp runs the tab's event loop on the context of the first Run.
	// It must be tabCtx so that the tab outlives the navigation timeout.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		_ = page.Close() //nolint:errcheck // The open error is what matters.
		return nil, &NavigationError{URL: url, Err: fmt.Errorf("failed to open tab: %w", contextCause(ctx, err))}
	}

	status, err := c.navigate(ctx, tabCtx, url, page)
	if err != nil {
		_ = page.Close() //nolint:errcheck // The navigation error is what matters.
		return nil, &NavigationError{URL: url, Status: status, Err: err}
	}
	return page, nil
}

// navigate loads url into the tab and records the final URL on page.
// It returns the HTTP status of the main document when one was received.
func (c *Chrome) navigate(ctx, tabCtx context.Context, url string, page *chromePage) (int, error) {
	navCtx, cancel := context.WithTimeout(tabCtx, c.navigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	tracker := newIdleTracker(c.maxInflight)
	chromedp.ListenTarget(tabCtx, tracker.handle)

	setup, err := c.setupTasks(tabCtx, url)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page: %w", err)
	}
	if err := chromedp.Run(navCtx, setup); err != nil {
		return 0, fmt.Errorf("failed to prepare page: %w", contextCause(ctx, err))
	}

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, contextCause(ctx, err)
	}
	if resp == nil {
		return 0, errors.New("no response for main document")
	}
	status := int(resp.Status)
	if status < 200 || status > 299 {
		return status, fmt.Errorf("%w: %s", errUnexpectedStatus, resp.StatusText)
	}

	tracker.reset()
	if err := tracker.wait(navCtx, c.idleTime); err != nil {
		c.logger.Debug("network did not become idle",
			"url", url,
			"pending", tracker.pending(),
		)
		return status, fmt.Errorf("%w: %w", ErrNetworkIdleTimeout, contextCause(ctx, err))
	}

	var location string
	if err := chromedp.Run(navCtx, chromedp.Location(&location)); err != nil {
		return status, fmt.Errorf("failed to read page location: %w", err)
	}
	if location != "" {
		page.url = location
	}

	c.logger.Debug("page loaded", "url", url, "finalURL", page.url, "status", status)
	return status, nil
}

// setupTasks prepares a tab before it navigates to url. The cookie is stored
// for the origin of url, and requests to that origin are paused so that
// forwardHeaders can add the extra headers.
func (c *Chrome) setupTasks(tabCtx context.Context, url string) (chromedp.Tasks, error) {
	tasks := chromedp.Tasks{network.Enable()}

	cookies, err := siteCookies(c.cookies, url)
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		tasks = append(tasks, network.SetCookies(cookies))
	}

	if len(c.headers) > 0 {
		pattern, err := originPattern(url)
		if err != nil {
			return nil, err
		}
		c.forwardHeaders(tabCtx)
		tasks = append(tasks, fetch.Enable().WithPatterns([]*fetch.RequestPattern{pattern}))
	}
	return tasks, nil
}

// forwardHeaders resumes every paused request of the tab with the extra
// headers added.
func (c *Chrome) forwardHeaders(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev any) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// Listeners run on the event loop and must not wait for a response.
		go func() {
			var headers network.Headers
			if paused.Request != nil {
				headers = paused.Request.Headers
			}
			resume := fetch.ContinueRequest(paused.RequestID).WithHeaders(mergeHeaders(headers, c.headers))
			if err := chromedp.Run(tabCtx, resume); err != nil && tabCtx.Err() == nil {
				c.logger.Debug("failed to resume request", "requestID", paused.RequestID, "error", err)
			}
		}()
	})
}

// contextCause prefers the caller's cancellation over chromedp's own error.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close shuts down the browser process. Pages still open are closed with it.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	err := chromedp.Cancel(c.browserCtx)
	c.browserCancel()
	c.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// chromePage is a Page backed by a chromedp tab context.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	url    string

	closeOnce sync.Once
	closeErr  error
}

// URL implements Page.
func (p *chromePage) URL() string {
	return p.url
}

// Evaluate implements Page.
func (p *chromePage) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	if p.ctx.Err() != nil {
		return nil, ErrPageClosed
	}
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw []byte
	err := chromedp.Run(runCtx, chromedp.Evaluate(expression, &raw,
		func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
			return params.WithAwaitPromise(true)
		},
	))
	if err != nil {
		return nil, contextCause(ctx, err)
	}
	return json.RawMessage(raw), nil
}

// Close implements Page. It closes the tab and disposes its browser context.
func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = chromedp.Cancel(p.ctx)
		p.cancel()
		if errors.Is(p.closeErr, context.Canceled) {
			p.closeErr = nil
		}
	})
	return p.closeErr
}
