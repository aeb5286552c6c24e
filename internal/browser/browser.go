package browser

import (
	"context"
	"encoding/json"
)

// Page is a loaded page in its own isolated browsing context.
type Page interface {
	// URL returns the page URL after redirects.
	URL() string

	// Evaluate runs a JavaScript expression in the page and returns the JSON
	// encoding of its result. Promises are awaited.
	Evaluate(ctx context.Context, expression string) (json.RawMessage, error)

	// Close releases the page and its browsing context.
	// Calling Close more than once is safe.
	Close() error
}

// Loader loads pages.
type Loader interface {
	// Load navigates a fresh, isolated page to url and waits until the network
	// is idle. Failures are reported as *NavigationError.
	Load(ctx context.Context, url string) (Page, error)
}
