// Package model defines the core data structures used throughout sipcoverage.
//
// This package contains the following main types:
//   - CoverageReport: The result of one coverage run
//   - DocumentationSummary and BindingSummary: Its serializable sections
//   - Comparison: The difference between two stored runs
//
// Models live in their own package so the pipeline, report writers and
// history database can share them without import cycles. They are
// serializable to JSON for report output and database storage.
package model
