package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})
	logger.Debug("hidden")
	logger.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output should be suppressed: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info output missing: %q", out)
	}
}

func TestNewVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Verbose: true, Writer: &buf})
	logger.Debug("visible", "path", "schema.sql")
	out := buf.String()
	if !strings.Contains(out, "visible") || !strings.Contains(out, "schema.sql") {
		t.Fatalf("verbose debug output missing: %q", out)
	}
}
