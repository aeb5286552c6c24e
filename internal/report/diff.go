package report

import (
	"io"
	"strconv"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/markdown"
)

// DiffWriter outputs a comparison of two runs as markdown tables.
type DiffWriter struct {
	baseWriter
}

// NewDiffWriter creates a DiffWriter that outputs to the given writer.
func NewDiffWriter(output io.Writer) *DiffWriter {
	return &DiffWriter{baseWriter: newBaseWriter(output)}
}

// WriteDiff outputs diff between the runs older and newer.
func (w *DiffWriter) WriteDiff(older, newer *model.CrawlReport, diff *model.Diff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Accessibility Comparison: " + newer.RootURL)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Run", "Run ID", "Started", "Violations"},
		Rows: [][]string{
			{"Older", markdown.Code(older.RunID), older.StartedAt.Format("2006-01-02 15:04:05 MST"), strconv.Itoa(older.TotalViolations())},
			{"Newer", markdown.Code(newer.RunID), newer.StartedAt.Format("2006-01-02 15:04:05 MST"), strconv.Itoa(newer.TotalViolations())},
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Note("No changes between the two runs.")
		md.PlainText("")
	}

	w.writeFindings(md, "New Violations", diff.New)
	w.writeFindings(md, "Resolved Violations", diff.Resolved)

	md.PlainTextf("%d violation(s) unchanged.", diff.Unchanged)
	md.PlainText("")

	if len(diff.SkippedPages) > 0 {
		md.H2("Pages Not Compared")
		md.PlainText("")
		md.PlainText("These pages failed to evaluate in at least one run.")
		md.PlainText("")
		md.BulletList(diff.SkippedPages...)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

func (w *DiffWriter) writeFindings(md *markdown.Markdown, title string, findings []model.Finding) {
	md.H2(title + " (" + strconv.Itoa(len(findings)) + ")")
	md.PlainText("")
	if len(findings) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		selector := f.Selector
		if selector == "" {
			selector = "-"
		}
		rows[i] = []string{f.PageURL, f.RuleID, f.Impact.String(), markdown.Code(selector)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Rule", "Impact", "Element"},
		Rows:   rows,
	})
	md.PlainText("")
}
