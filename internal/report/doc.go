// Package report renders audit results.
//
// This package contains writers for different output formats:
//   - MarkdownWriter: the accessibility evaluation report saved to disk
//   - JSONWriter: structured JSON output for tool integration
//   - SimpleWriter: a short human-readable summary for terminal display
//   - DiffWriter: a markdown comparison of two runs
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that a new output format never touches
// the crawl or audit code. Every writer is a pure function of its input:
// the same CrawlReport always renders to the same bytes.
//
// WriteFile places a rendered report under a directory derived from the
// root URL (see DirName).
package report
