// Package coverage decides which Doxygen members should be documented and
// which should be exposed through the SIP Python bindings, and aggregates
// the results across a whole API.
//
// The rules encode the conventions of one project and one binding
// generator; they are not a general documentation coverage model.
//
// A Classifier turns one doxygen.Compound into a ClassResult. Results are
// folded into a Tally, and tallies built from different files can be merged
// in any order. Probe compares the bindable members of a Tally against a
// bindings.Environment.
package coverage
