// Package config provides configuration structures and utilities for
// sipcoverage. It defines where the Doxygen XML and the binding symbol dump
// are read from, the classification rules, the gate thresholds, and report
// and history preferences.
//
// Values are layered: NewConfig defaults, then the .sipcoverage file
// (defaults section, then the selected project), then command-line flags.
package config
