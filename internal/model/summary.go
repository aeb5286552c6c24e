package model

import "time"

// Summary is a condensed view of a CrawlReport.
// It is stored alongside each run in the history database and printed by
// the terminal writer.
//
// Design decision: We keep counts per known impact level as separate fields
// rather than a map so that the database can store them as plain columns and
// the JSON form stays stable.
type Summary struct {
	// RootURL is the URL the run started from.
	RootURL string `json:"root_url"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// === Page Statistics ===

	// PagesEvaluated is the number of pages that produced a result.
	PagesEvaluated int `json:"pages_evaluated"`

	// PagesFailed is the number of pages that carry an error marker.
	PagesFailed int `json:"pages_failed"`

	// LinksFound is the number of links collected on the root page.
	LinksFound int `json:"links_found"`

	// === Impact Summary ===

	// TotalViolations is the number of violations across all pages.
	TotalViolations int `json:"total_violations"`

	// CriticalCount is the number of critical violations.
	CriticalCount int `json:"critical_count"`

	// SeriousCount is the number of serious violations.
	SeriousCount int `json:"serious_count"`

	// ModerateCount is the number of moderate violations.
	ModerateCount int `json:"moderate_count"`

	// MinorCount is the number of minor violations.
	MinorCount int `json:"minor_count"`

	// OtherCount is the number of violations with an impact outside the known levels.
	OtherCount int `json:"other_count"`

	// AffectedElements is the number of violation nodes across all pages.
	AffectedElements int `json:"affected_elements"`
}

// Summarize builds a Summary from a report.
func Summarize(r *CrawlReport) *Summary {
	s := &Summary{
		RootURL:    r.RootURL,
		StartedAt:  r.StartedAt,
		LinksFound: r.LinksFound,
	}
	for _, p := range r.Pages {
		if p.Failed() {
			s.PagesFailed++
			continue
		}
		s.PagesEvaluated++
		for _, v := range p.Violations {
			s.add(v)
		}
	}
	return s
}

func (s *Summary) add(v Violation) {
	s.TotalViolations++
	s.AffectedElements += len(v.Nodes)
	switch v.Impact {
	case ImpactCritical:
		s.CriticalCount++
	case ImpactSerious:
		s.SeriousCount++
	case ImpactModerate:
		s.ModerateCount++
	case ImpactMinor:
		s.MinorCount++
	default:
		s.OtherCount++
	}
}

// CountFor returns the number of violations with the given impact.
// Unknown impacts share OtherCount.
func (s *Summary) CountFor(i Impact) int {
	switch i {
	case ImpactCritical:
		return s.CriticalCount
	case ImpactSerious:
		return s.SeriousCount
	case ImpactModerate:
		return s.ModerateCount
	case ImpactMinor:
		return s.MinorCount
	default:
		return s.OtherCount
	}
}
