package config

import "github.com/defconcepts/sipcoverage/internal/coverage"

// ProjectConfig holds the settings of one project in the configuration
// file. Empty fields inherit from the defaults section.
type ProjectConfig struct {
	// XMLDir is the Doxygen XML output directory.
	XMLDir string `yaml:"xml_dir,omitempty"`

	// Symbols is the path of the binding symbol dump.
	Symbols string `yaml:"symbols,omitempty"`

	// Ignore are gitignore-style patterns of XML file names to skip,
	// e.g. "dir_*.xml" or "namespace*.xml".
	Ignore []string `yaml:"ignore,omitempty"`

	// Concurrency overrides the number of files parsed in parallel.
	Concurrency int `yaml:"concurrency,omitempty"`

	// ImportantLog overrides the summary log file path.
	ImportantLog string `yaml:"important_log,omitempty"`

	// Rules override individual classification rules.
	Rules coverage.Rules `yaml:"rules,omitempty"`
}

// File represents the structure of the .sipcoverage configuration file.
type File struct {
	// Defaults apply to every project unless the project overrides them.
	Defaults ProjectConfig `yaml:"defaults,omitempty"`

	// Projects maps project names to their settings.
	Projects map[string]ProjectConfig `yaml:"projects,omitempty"`
}

// GetProjectConfig returns the configuration for a project, merged over the
// defaults. The second result is false when the project is not defined.
func (cf *File) GetProjectConfig(name string) (ProjectConfig, bool) {
	result := cf.Defaults
	result.Ignore = append([]string(nil), cf.Defaults.Ignore...)

	p, ok := cf.Projects[name]
	if !ok {
		return result, false
	}

	if p.XMLDir != "" {
		result.XMLDir = p.XMLDir
	}
	if p.Symbols != "" {
		result.Symbols = p.Symbols
	}
	if p.Concurrency != 0 {
		result.Concurrency = p.Concurrency
	}
	if p.ImportantLog != "" {
		result.ImportantLog = p.ImportantLog
	}
	// project patterns extend the default ones
	result.Ignore = append(result.Ignore, p.Ignore...)
	result.Rules = mergeRules(result.Rules, p.Rules)

	return result, true
}
