// Package doxygen reads the XML output generated by Doxygen.
//
// Doxygen writes one XML file per documented compound (class, namespace,
// file, ...). Each file holds one or more compounddef elements. This package
// streams those files and hands every compounddef to a callback as a
// Compound value, so only one compound subtree is held in memory at a time.
//
// # Optional data
//
// Most of the elements inside a compounddef are optional. Accessors such as
// Member.ArgsString return a (value, ok) pair instead of a zero value, so
// callers can tell an absent element from an empty one.
//
// # Malformed input
//
// Doxygen occasionally emits malformed XML, typically for operator
// declarations containing a literal '<' or '>'. Parse and ParseFile return a
// *ParseError carrying the line, column and source text of the failure.
// Compounds delivered before the failure remain delivered.
package doxygen
