package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCodeFailure is returned when the gate fails or any error occurs.
const exitCodeFailure = 1

// NewRootCmd creates the root command for sipcoverage.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sipcoverage",
		Short: "Documentation and Python binding coverage for Doxygen-documented C++ APIs",
		Long: `sipcoverage reads the Doxygen XML output of a C++ project and reports
how many public classes and members are documented and how many of them
are exposed through the SIP Python bindings.

The check fails when more classes or members are missing bindings than
allowed. The limits can be raised on CI with the MISSING_SIP_CLASSES and
MISSING_SIP_MEMBERS environment variables.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFailure)
	}
}
