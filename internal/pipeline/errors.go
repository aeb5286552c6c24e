package pipeline

import (
	"errors"

	"github.com/nao1215/a11yscan/internal/audit"
	"github.com/nao1215/a11yscan/internal/browser"
)

var (
	// ErrInvalidTransition is returned when a step moves the run to a state
	// that cannot follow the current one.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrRootNotLoaded is returned when a step needs the root page but it is
	// not open.
	ErrRootNotLoaded = errors.New("root page is not loaded")

	// ErrUnknownFailurePolicy is returned by ParseFailurePolicy.
	ErrUnknownFailurePolicy = errors.New("unknown failure policy")
)

// isPageError reports whether err is a per-page failure that the isolate
// policy may record instead of aborting.
func isPageError(err error) bool {
	var navErr *browser.NavigationError
	if errors.As(err, &navErr) {
		return true
	}
	var auditErr *audit.AuditExecutionError
	return errors.As(err, &auditErr)
}
