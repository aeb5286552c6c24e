package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrBrowserClosed is returned when Load is called after Close.
	ErrBrowserClosed = errors.New("browser is closed")

	// ErrPageClosed is returned when a closed page is used.
	ErrPageClosed = errors.New("page is closed")

	// ErrNetworkIdleTimeout is returned when the network never became idle.
	ErrNetworkIdleTimeout = errors.New("timed out waiting for network idle")
)

// NavigationError reports that a page could not be loaded.
// It covers unreachable hosts, timeouts and non-2xx responses.
type NavigationError struct {
	// URL is the page that failed to load.
	URL string

	// Status is the HTTP status of the main document, or 0 if no response
	// was received.
	Status int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *NavigationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("navigation to %s failed with status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// errUnexpectedStatus is the cause recorded for non-2xx documents.
var errUnexpectedStatus = errors.New("unexpected HTTP status")
