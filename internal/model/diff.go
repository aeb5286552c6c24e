package model

import "sort"

// Finding identifies one violating element on one page.
// It is the unit compared between two runs.
type Finding struct {
	// PageURL is the page the violation was found on.
	PageURL string `json:"page_url"`

	// RuleID is the violated rule.
	RuleID string `json:"rule_id"`

	// Selector locates the element. It is empty when the engine gave no target.
	Selector string `json:"selector,omitempty"`

	// Impact is the severity of the violation.
	Impact Impact `json:"impact"`

	// Description is the rule description.
	Description string `json:"description"`
}

func (f Finding) key() string {
	return f.PageURL + "\x00" + f.RuleID + "\x00" + f.Selector
}

// Findings flattens a report into one Finding per violation node.
// A violation without nodes yields a single Finding with an empty selector.
func Findings(r *CrawlReport) []Finding {
	var out []Finding
	for _, p := range r.Pages {
		for _, v := range p.Violations {
			base := Finding{
				PageURL:     p.URL,
				RuleID:      v.ID,
				Impact:      v.Impact,
				Description: v.Description,
			}
			if len(v.Nodes) == 0 {
				out = append(out, base)
				continue
			}
			for _, n := range v.Nodes {
				f := base
				f.Selector = n.Selector()
				out = append(out, f)
			}
		}
	}
	return out
}

// Diff is the difference between an older and a newer run.
type Diff struct {
	// New are findings present only in the newer run.
	New []Finding `json:"new"`

	// Resolved are findings present only in the older run.
	Resolved []Finding `json:"resolved"`

	// Unchanged is the number of findings present in both runs.
	Unchanged int `json:"unchanged"`

	// SkippedPages lists pages that failed in either run. Their findings are
	// not compared, since a failed page would otherwise look fully resolved.
	SkippedPages []string `json:"skipped_pages,omitempty"`
}

// HasChanges reports whether the runs differ.
func (d *Diff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Resolved) > 0
}

// CompareReports computes the findings that appeared and disappeared between
// older and newer. Results are sorted by page, rule and selector.
func CompareReports(older, newer *CrawlReport) *Diff {
	skip := failedPages(older, newer)

	oldSet := make(map[string]Finding)
	for _, f := range Findings(older) {
		if _, ok := skip[f.PageURL]; ok {
			continue
		}
		oldSet[f.key()] = f
	}
	newSet := make(map[string]Finding)
	for _, f := range Findings(newer) {
		if _, ok := skip[f.PageURL]; ok {
			continue
		}
		newSet[f.key()] = f
	}

	d := &Diff{New: []Finding{}, Resolved: []Finding{}}
	for k, f := range newSet {
		if _, ok := oldSet[k]; ok {
			d.Unchanged++
			continue
		}
		d.New = append(d.New, f)
	}
	for k, f := range oldSet {
		if _, ok := newSet[k]; !ok {
			d.Resolved = append(d.Resolved, f)
		}
	}
	sortFindings(d.New)
	sortFindings(d.Resolved)

	for u := range skip {
		d.SkippedPages = append(d.SkippedPages, u)
	}
	sort.Strings(d.SkippedPages)
	return d
}

func failedPages(reports ...*CrawlReport) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range reports {
		for _, p := range r.Pages {
			if p.Failed() {
				out[p.URL] = struct{}{}
			}
		}
	}
	return out
}

func sortFindings(fs []Finding) {
	sort.Slice(fs, func(i, j int) bool {
		return fs[i].key() < fs[j].key()
	})
}
