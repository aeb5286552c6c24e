// Package crawler discovers the pages an audit run visits.
//
// # Components
//
//   - Normalizer: Turns raw href values into a LinkSet of absolute,
//     same-origin, fragment-free URLs in first-seen order
//   - Collector: Reads the DOM of a loaded page, extracts its anchors and
//     passes them through the Normalizer
//   - ParseAnchors: HTML parsing of anchor targets and the document base URL
//
// Discovery is one level deep. The Collector never navigates; it only reads
// the page it is given.
//
// # Normalization rules
//
//   - Entries containing '#' are dropped, as are javascript:, mailto:, tel:
//     and data: links
//   - Relative hrefs are resolved against the page URL
//   - Scheme and host are lowercased and default ports removed, matching the
//     form a browser reports for an anchor's href
//   - Only URLs with the page's origin (scheme, host and port) are kept
//   - Duplicates are collapsed by exact string, keeping the first occurrence
//
// Design decision: The Collector parses a DOM snapshot with golang.org/x/net/html
// instead of querying anchors through JavaScript. The snapshot reflects
// script-inserted links just the same, and the extraction stays testable
// against plain HTML fixtures.
package crawler
