// Package database provides SQLite-based storage of audit history.
//
// Every finished run is stored as one row of the audit_runs table: the
// per-impact counts as plain columns for listing, and the complete
// CrawlReport as JSON so that two runs can be compared later.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external service - the database is a single file in the XDG data dir
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance: a run is written once and read rarely
package database
