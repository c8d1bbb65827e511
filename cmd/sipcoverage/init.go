package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/defconcepts/sipcoverage/internal/config"
)

//go:embed templates/sipcoverage.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sipcoverage configuration file",
		Long: `Initialize creates a new .sipcoverage configuration file in the current directory.

The generated file includes:
- Default XML directory, symbol dump and ignore patterns
- The classification rules of the QGIS project, ready to adapt
- Commented examples for project-specific sections

Examples:
  # Create .sipcoverage in current directory
  sipcoverage init

  # Create config file at a specific path
  sipcoverage init -o myconfig.yaml

  # Force overwrite existing file
  sipcoverage init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/sipcoverage.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure project settings such as:")
	fmt.Fprintln(out, "  - Doxygen XML directory and binding symbol dump")
	fmt.Fprintln(out, "  - XML files to ignore")
	fmt.Fprintln(out, "  - Deprecation marker and opt-out phrases")

	return nil
}
