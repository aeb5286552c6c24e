package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CrawlReport is the aggregated result of one audit run.
//
// The report is built incrementally by the orchestrator and finalized exactly
// once. After Finalize, AddPage and MarkLinks return ErrReportFinalized.
type CrawlReport struct {
	// RunID identifies the run in the history database.
	RunID string `json:"run_id"`

	// RootURL is the URL the run started from, as given by the user.
	RootURL string `json:"root_url"`

	// Pages holds the root page first (when evaluated), then the discovered
	// links in document order.
	Pages []PageResult `json:"pages"`

	// RootEvaluated is true when the root page itself was audited.
	RootEvaluated bool `json:"root_evaluated"`

	// LinksFound is the number of same-origin links collected on the root page.
	LinksFound int `json:"links_found"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the report was finalized.
	FinishedAt time.Time `json:"finished_at"`

	finalized bool
	index     map[string]struct{}
}

// NewCrawlReport creates an empty report for rootURL.
func NewCrawlReport(rootURL string) *CrawlReport {
	return &CrawlReport{
		RunID:     uuid.NewString(),
		RootURL:   rootURL,
		Pages:     []PageResult{},
		StartedAt: time.Now(),
	}
}

// AddPage appends a page result.
// It fails if a result for the same URL is already present.
func (r *CrawlReport) AddPage(p PageResult) error {
	if r.finalized {
		return ErrReportFinalized
	}
	if r.HasPage(p.URL) {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, p.URL)
	}
	if r.index == nil {
		r.index = make(map[string]struct{})
	}
	r.index[p.URL] = struct{}{}
	r.Pages = append(r.Pages, p)
	return nil
}

// HasPage reports whether a result for url is present.
func (r *CrawlReport) HasPage(url string) bool {
	if r.index == nil {
		for _, p := range r.Pages {
			if p.URL == url {
				return true
			}
		}
		return false
	}
	_, ok := r.index[url]
	return ok
}

// MarkLinks records how many links were collected on the root page.
func (r *CrawlReport) MarkLinks(n int) error {
	if r.finalized {
		return ErrReportFinalized
	}
	r.LinksFound = n
	return nil
}

// Finalize seals the report. It fails when called twice.
func (r *CrawlReport) Finalize() error {
	if r.finalized {
		return ErrReportFinalized
	}
	r.finalized = true
	r.FinishedAt = time.Now()
	return nil
}

// Finalized reports whether Finalize has been called.
func (r *CrawlReport) Finalized() bool {
	return r.finalized
}

// NoChildPages reports whether the root page had no same-origin links.
func (r *CrawlReport) NoChildPages() bool {
	return r.LinksFound == 0
}

// TotalViolations returns the number of violations across all pages.
func (r *CrawlReport) TotalViolations() int {
	total := 0
	for _, p := range r.Pages {
		total += len(p.Violations)
	}
	return total
}

// Duration returns how long the run took. It is zero before Finalize.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
