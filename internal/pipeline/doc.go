// Package pipeline runs a coverage check as a sequence of steps.
//
// A check has three stages: ingest reads the Doxygen XML and classifies
// every class, probe looks the bindable members up in the binding
// environment, and gate compares the missing counts with the thresholds.
// Each stage is a Step that receives the CoverageReport and fills its part.
//
// Ingest parses files concurrently through a BatchProcessor built on
// errgroup. Each file gets its own tally; tallies are merged in file order
// afterwards so the result does not depend on scheduling.
package pipeline
