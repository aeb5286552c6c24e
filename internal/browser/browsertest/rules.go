package browsertest

import "encoding/json"

// Markers that identify the expressions the audit and crawler packages send.
const (
	// MatchDocumentHTML matches the DOM snapshot expression.
	MatchDocumentHTML = "outerHTML"
	// MatchAxePresent matches the check that the audit engine is installed.
	MatchAxePresent = "typeof window.axe"
	// MatchAxeRun matches the audit run.
	MatchAxeRun = "axe.run("
)

// HTML answers the DOM snapshot expression with markup.
func HTML(markup string) Rule {
	data, _ := json.Marshal(markup) //nolint:errcheck // Strings always marshal.
	return Rule{Match: MatchDocumentHTML, Result: data}
}

// Axe installs a fake audit engine that reports the given results document.
// results is the JSON the engine resolves with, e.g. `{"violations":[]}`.
func Axe(results string) []Rule {
	return []Rule{
		{Match: MatchAxePresent, Result: json.RawMessage("true")},
		{Match: MatchAxeRun, Result: json.RawMessage(results)},
	}
}

// AuditedPage combines HTML and Axe into the rules of a site.
func AuditedPage(markup, results string) Site {
	return Site{Rules: append([]Rule{HTML(markup)}, Axe(results)...)}
}
