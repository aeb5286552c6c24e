// Package model defines the data structures shared by the a11yscan packages.
//
// This package contains the following main types:
//   - Violation and ViolationNode: One accessibility rule failure and the
//     DOM elements it matched
//   - PageResult: The outcome of auditing a single page
//   - CrawlReport: The aggregated result of one audit run
//   - LinkSet: The ordered, duplicate-free set of links found on the root page
//
// Design decision: The audit engine returns loosely structured data. The audit
// package converts it into these types at the boundary so every other package
// (pipeline, report, database) works with validated values only.
//
// The models are serializable to JSON for report output and database storage.
package model
