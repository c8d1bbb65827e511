package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestEnvLookup tests reading overrides from a dotenv file.
func TestEnvLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci.env")
	content := "QGIS_PREFIX_PATH=/build/output\nSIPCOVERAGE_TEST_SHADOWED=file\n# comment\nMISSING_SIP_CLASSES=3\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIPCOVERAGE_TEST_SHADOWED", "process")

	getenv, err := EnvLookup(path)
	if err != nil {
		t.Fatalf("EnvLookup() error = %v", err)
	}

	if got := getenv("MISSING_SIP_CLASSES"); got != "3" {
		t.Errorf("MISSING_SIP_CLASSES = %q, want 3", got)
	}
	if got := getenv("SIPCOVERAGE_TEST_SHADOWED"); got != "process" {
		t.Errorf("process environment should win, got %q", got)
	}
	if got := getenv("SIPCOVERAGE_TEST_UNSET"); got != "" {
		t.Errorf("unset variable = %q, want empty", got)
	}

	cfg := NewConfig()
	cfg.ResolveXMLDir(getenv)
	if cfg.XMLDir != filepath.Join("/build", "doc", "api", "xml") {
		t.Errorf("XMLDir = %q", cfg.XMLDir)
	}
}

// TestEnvLookupErrors tests the failure cases.
func TestEnvLookupErrors(t *testing.T) {
	t.Parallel()

	if _, err := EnvLookup(filepath.Join(t.TempDir(), "missing.env")); !errors.Is(err, ErrInvalidEnvFile) {
		t.Errorf("expected ErrInvalidEnvFile, got %v", err)
	}

	getenv, err := EnvLookup("")
	if err != nil || getenv == nil {
		t.Errorf("empty path should use the process environment, got %v", err)
	}
}
