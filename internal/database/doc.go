// Package database provides SQLite-based history storage for scan reports.
//
// This package implements the HistoryDB, which stores completed privacy
// reports so that consecutive scans can be compared over time:
//   - Full report JSON for replay and diffing
//   - Denormalized score, risk level, and severity counts for cheap listing
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
