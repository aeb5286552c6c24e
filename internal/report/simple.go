package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

// SimpleWriter outputs a short human-readable summary for the terminal.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose lists every violation instead of per-page counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder
	summary := model.Summarize(report)

	w.writeHeader(&sb, report, summary)
	w.writeImpacts(&sb, summary)
	w.writePages(&sb, report)

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport, s *model.Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                  ACCESSIBILITY EVALUATION SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Root URL:        %s\n", report.RootURL)
	fmt.Fprintf(sb, "Run ID:          %s\n", report.RunID)
	fmt.Fprintf(sb, "Started:         %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:        %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Links Found:     %d\n", s.LinksFound)
	fmt.Fprintf(sb, "Pages Evaluated: %d\n", s.PagesEvaluated)
	if s.PagesFailed > 0 {
		fmt.Fprintf(sb, "Pages Failed:    %d\n", s.PagesFailed)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeImpacts(sb *strings.Builder, s *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VIOLATIONS BY IMPACT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	// Highest impact first.
	for i := len(model.KnownImpacts) - 1; i >= 0; i-- {
		impact := model.KnownImpacts[i]
		fmt.Fprintf(sb, "  %-9s %d\n", strings.ToUpper(impact.String())+":", s.CountFor(impact))
	}
	if s.OtherCount > 0 {
		fmt.Fprintf(sb, "  %-9s %d\n", "OTHER:", s.OtherCount)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d violations on %d elements\n", s.TotalViolations, s.AffectedElements)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Pages) == 0 {
		sb.WriteString("  No pages evaluated\n\n")
		return
	}

	for _, p := range report.Pages {
		if p.Failed() {
			fmt.Fprintf(sb, "  [x] %s\n      error: %s\n", p.URL, p.Error)
			continue
		}
		fmt.Fprintf(sb, "  [%s] %s (%d)\n", pageIndicator(p), p.URL, len(p.Violations))
		if !w.verbose {
			continue
		}
		for _, v := range p.Violations {
			fmt.Fprintf(sb, "      * [%s] %s (%d elements)\n", v.Impact, v.ID, len(v.Nodes))
		}
	}
	sb.WriteString("\n")
}

// impactMarkers are the page markers of the known impacts.
var impactMarkers = map[model.Impact]string{
	model.ImpactCritical: "!!!",
	model.ImpactSerious:  "!!",
	model.ImpactModerate: "!",
	model.ImpactMinor:    "-",
}

// pageIndicator returns a marker for the highest impact on the page.
func pageIndicator(p model.PageResult) string {
	counts := p.ImpactCounts()
	for i := len(model.KnownImpacts) - 1; i >= 0; i-- {
		impact := model.KnownImpacts[i]
		if counts[impact] > 0 {
			return impactMarkers[impact]
		}
	}
	if len(p.Violations) > 0 {
		return "?"
	}
	return "+"
}
