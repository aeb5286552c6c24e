package report

import (
	"fmt"
	"io"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/markdown"
)

const (
	// reportTitle is the H1 of every evaluation report.
	reportTitle = "Accessibility Evaluation Report"

	// noChildPagesNotice is emitted when the root page had no same-origin links.
	noChildPagesNotice = `<h3 style="background-color:yellow;">No child pages found.</h3>`
)

// MarkdownWriter outputs the accessibility evaluation report.
//
// The layout is fixed:
//
//	# Accessibility Evaluation Report
//
//	## <url>
//
//	- **Total Violations**: <n>
//
//	### <i>. <description>
//	- **WCAG Reference**: <helpUrl>
//	- **Impact**: <impact>
//	- **Elements**:
//	  - ```html
//	    <node html>
//	    ```
//
// Pages and violations keep the order of the report. Nothing is sorted,
// merged or truncated.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(reportTitle)
	md.PlainText("")

	for i, page := range report.Pages {
		w.writePage(md, page)
		// The notice follows the root section, or stands alone when the
		// root page was not audited.
		if i == 0 && report.RootEvaluated && report.NoChildPages() {
			w.writeNoChildPages(md)
		}
	}
	if !report.RootEvaluated && report.NoChildPages() {
		w.writeNoChildPages(md)
	}

	// Every line above ends with a line feed, including the last one.
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writePage writes one page section.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, page model.PageResult) {
	md.H2(page.URL)
	md.PlainText("")

	if page.Failed() {
		md.BulletList(markdown.Bold("Evaluation Error") + ": " + page.Error)
		md.PlainText("")
		return
	}

	md.BulletList(fmt.Sprintf("%s: %d", markdown.Bold("Total Violations"), len(page.Violations)))
	md.PlainText("")

	if len(page.Violations) == 0 {
		md.BulletList(markdown.Bold("No violations found."))
		md.PlainText("")
		return
	}

	for i, v := range page.Violations {
		w.writeViolation(md, i+1, v)
	}
}

// writeViolation writes one numbered violation with its elements.
func (w *MarkdownWriter) writeViolation(md *markdown.Markdown, n int, v model.Violation) {
	md.H3(fmt.Sprintf("%d. %s", n, v.Description))
	md.BulletList(
		markdown.Bold("WCAG Reference")+": "+v.HelpURL,
		markdown.Bold("Impact")+": "+v.Impact.String(),
		markdown.Bold("Elements")+":",
	)
	for _, node := range v.Nodes {
		md.PlainText("  - ```html")
		md.PlainText("    " + node.HTML)
		md.PlainText("    ```")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeNoChildPages(md *markdown.Markdown) {
	md.PlainText(noChildPagesNotice)
	md.PlainText("")
}
