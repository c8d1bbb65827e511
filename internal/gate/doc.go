// Package gate decides whether binding coverage is good enough for CI.
//
// The gate compares the number of missing classes and missing members
// reported by the probe against two thresholds. The thresholds start at
// compiled-in defaults that track the known backlog of unbound API, and
// can be raised for a single run through environment variables.
package gate
