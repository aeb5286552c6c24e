package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/model"
)

// State is a stage of an audit run.
type State int

const (
	// StateInit is the state before the root page is loaded.
	StateInit State = iota
	// StateRootLoaded means the root page is open.
	StateRootLoaded
	// StateRootEvaluated means the root page has been audited.
	StateRootEvaluated
	// StateLinksCollected means the root page's links are known and the root
	// page has been released.
	StateLinksCollected
	// StateEvaluating means child pages are being audited.
	StateEvaluating
	// StateFinalized means the report is complete.
	StateFinalized
	// StateFailed means the run aborted.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRootLoaded:
		return "root_loaded"
	case StateRootEvaluated:
		return "root_evaluated"
	case StateLinksCollected:
		return "links_collected"
	case StateEvaluating:
		return "evaluating"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// transitions lists the legal successors of each state. Any non-terminal
// state may also move to StateFailed.
var transitions = map[State][]State{
	StateInit:           {StateRootLoaded},
	StateRootLoaded:     {StateRootEvaluated, StateLinksCollected},
	StateRootEvaluated:  {StateLinksCollected},
	StateLinksCollected: {StateEvaluating, StateFinalized},
	StateEvaluating:     {StateEvaluating, StateFinalized},
}

// canTransition reports whether from -> to is legal.
func canTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateFinalized && from != StateFailed
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Run is the mutable state of one audit run.
type Run struct {
	// RootURL is the URL the run starts from.
	RootURL string

	// State is the current stage.
	State State

	// Index is the position of the link being evaluated in StateEvaluating.
	Index int

	// Links are the links collected on the root page.
	Links *model.LinkSet

	// Report accumulates page results.
	Report *model.CrawlReport

	// Steps lists the names of completed steps.
	Steps []string

	// Err is the error that moved the run to StateFailed.
	Err error

	rootPage browser.Page
	visited  map[string]struct{}
}

// NewRun creates a run in StateInit.
func NewRun(rootURL string) *Run {
	return &Run{
		RootURL: rootURL,
		State:   StateInit,
		Report:  model.NewCrawlReport(rootURL),
		visited: make(map[string]struct{}),
	}
}

// Advance moves the run to the next state.
func (r *Run) Advance(to State) error {
	if !canTransition(r.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	return nil
}

// fail moves the run to StateFailed and records err.
func (r *Run) fail(err error) {
	if canTransition(r.State, StateFailed) {
		r.State = StateFailed
	}
	if r.Err == nil {
		r.Err = err
	}
}

// RootPage returns the open root page, or nil once it has been released.
func (r *Run) RootPage() browser.Page {
	return r.rootPage
}

// releaseRoot closes the root page if it is still open.
func (r *Run) releaseRoot(logger *slog.Logger) {
	if r.rootPage == nil {
		return
	}
	if err := r.rootPage.Close(); err != nil {
		logger.Debug("failed to close root page", "url", r.RootURL, "error", err)
	}
	r.rootPage = nil
}

// markVisited records that a result exists for each url.
func (r *Run) markVisited(urls ...string) {
	for _, u := range urls {
		if u != "" {
			r.visited[u] = struct{}{}
		}
	}
}

// wasVisited reports whether a result already exists for url.
func (r *Run) wasVisited(url string) bool {
	_, ok := r.visited[url]
	return ok
}
