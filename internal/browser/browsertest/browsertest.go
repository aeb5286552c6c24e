// Package browsertest provides an in-memory browser.Loader for tests.
//
// A Loader serves scripted pages keyed by URL. Every Load returns a new Page
// value, mirroring the isolation of the real browser, and the Loader records
// how many pages were opened and closed so tests can assert that every page
// was released.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/a11yscan/internal/browser"
)

// Rule answers expressions that contain Match.
type Rule struct {
	// Match is a substring of the expression.
	Match string

	// Result is the JSON returned for a matching expression.
	Result json.RawMessage

	// Err is returned instead of Result when set.
	Err error

	// Handler computes the answer when set. It takes precedence over Result
	// and Err and lets a test keep state across evaluations.
	Handler func(expression string) (json.RawMessage, error)
}

// Site describes how a URL behaves when loaded.
type Site struct {
	// FinalURL is the URL after redirects. Empty means the requested URL.
	FinalURL string

	// LoadErr makes Load fail with a *browser.NavigationError wrapping it.
	LoadErr error

	// Status is recorded on the NavigationError when LoadErr is set.
	Status int

	// Rules are checked in order. An expression that matches no rule
	// evaluates to null.
	Rules []Rule
}

// Loader is a scripted browser.Loader.
type Loader struct {
	mu     sync.Mutex
	sites  map[string]Site
	loads  []string
	opened int
	closed int
}

// NewLoader creates a Loader serving sites.
func NewLoader(sites map[string]Site) *Loader {
	if sites == nil {
		sites = make(map[string]Site)
	}
	return &Loader{sites: sites}
}

// Set adds or replaces a site.
func (l *Loader) Set(url string, site Site) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sites[url] = site
}

// Load implements browser.Loader.
func (l *Loader) Load(ctx context.Context, url string) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &browser.NavigationError{URL: url, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, url)

	site, ok := l.sites[url]
	if !ok {
		return nil, &browser.NavigationError{URL: url, Err: fmt.Errorf("no scripted site for %s", url)}
	}
	if site.LoadErr != nil {
		return nil, &browser.NavigationError{URL: url, Status: site.Status, Err: site.LoadErr}
	}

	final := site.FinalURL
	if final == "" {
		final = url
	}
	l.opened++
	return &Page{url: final, rules: site.Rules, loader: l}, nil
}

// Loads returns the URLs passed to Load in call order.
func (l *Loader) Loads() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.loads))
	copy(out, l.loads)
	return out
}

// Open returns the number of pages loaded but not yet closed.
func (l *Loader) Open() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened - l.closed
}

// Opened returns the number of pages loaded successfully.
func (l *Loader) Opened() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened
}

func (l *Loader) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed++
}

// Page is a scripted browser.Page.
type Page struct {
	url    string
	rules  []Rule
	loader *Loader

	mu          sync.Mutex
	closed      bool
	expressions []string
}

// NewPage creates a standalone page that is not tracked by a Loader.
func NewPage(url string, rules ...Rule) *Page {
	return &Page{url: url, rules: rules}
}

// URL implements browser.Page.
func (p *Page) URL() string {
	return p.url
}

// Evaluate implements browser.Page.
func (p *Page) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, browser.ErrPageClosed
	}
	p.expressions = append(p.expressions, expression)
	for _, r := range p.rules {
		if strings.Contains(expression, r.Match) {
			if r.Handler != nil {
				return r.Handler(expression)
			}
			if r.Err != nil {
				return nil, r.Err
			}
			return r.Result, nil
		}
	}
	return json.RawMessage("null"), nil
}

// Close implements browser.Page.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	if p.loader != nil {
		p.loader.release()
	}
	return nil
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Expressions returns the expressions evaluated so far.
func (p *Page) Expressions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.expressions))
	copy(out, p.expressions)
	return out
}
