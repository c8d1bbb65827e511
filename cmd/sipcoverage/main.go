// Package main provides the entry point for the sipcoverage CLI.
//
// sipcoverage measures how much of a C++ API, as described by Doxygen XML,
// is documented and exposed through its SIP Python bindings, and fails
// when too many classes or members are missing bindings.
//
// Usage:
//
//	sipcoverage check --xml-dir build/doc/api/xml --symbols symbols.yaml
//	sipcoverage compare
//
// See --help for all available options.
package main

func main() {
	Execute()
}
