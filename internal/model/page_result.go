package model

// PageResult is the outcome of auditing one page.
type PageResult struct {
	// URL is the audited page.
	URL string `json:"url"`

	// Violations are kept in the order the engine returned them.
	Violations []Violation `json:"violations"`

	// Error is set when the page could not be evaluated and the run was
	// configured to continue past failures. Violations is empty in that case.
	Error string `json:"error,omitempty"`
}

// NewPageResult creates a result for a successfully audited page.
func NewPageResult(url string, violations []Violation) PageResult {
	if violations == nil {
		violations = []Violation{}
	}
	return PageResult{
		URL:        url,
		Violations: violations,
	}
}

// NewFailedPageResult creates a result carrying an error marker.
func NewFailedPageResult(url string, err error) PageResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return PageResult{
		URL:        url,
		Violations: []Violation{},
		Error:      msg,
	}
}

// Failed reports whether the page carries an error marker.
func (p PageResult) Failed() bool {
	return p.Error != ""
}

// ImpactCounts returns the number of violations per impact level.
func (p PageResult) ImpactCounts() map[Impact]int {
	counts := make(map[Impact]int)
	for _, v := range p.Violations {
		counts[v.Impact]++
	}
	return counts
}
