// Package database provides SQLite-based storage for coverage history.
//
// Every check run is stored with its project, counts, gate decision,
// corpus fingerprint and full JSON report, so later runs can be compared
// against it.
//
// SQLite is used through modernc.org/sqlite, which needs no CGO. The
// database is a single file in the XDG data directory.
package database
