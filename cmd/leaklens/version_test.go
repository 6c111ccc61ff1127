package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	if got := getVersion(); got == "" {
		t.Error("expected non-empty version")
	}

	// ldflags value takes priority
	old := version
	version = "v1.2.3"
	defer func() { version = old }()

	if got := getVersion(); got != "v1.2.3" {
		t.Errorf("version = %q, want %q", got, "v1.2.3")
	}
}

// TestGetCommit tests commit hash resolution and truncation.
func TestGetCommit(t *testing.T) {
	old := commit
	commit = "abc123def456"
	defer func() { commit = old }()

	if got := getCommit(); got != "abc123def456" {
		t.Errorf("commit = %q, want %q", got, "abc123def456")
	}
}

// TestVersionCmd tests the version command output.
func TestVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	output := buf.String()
	if !strings.Contains(output, "leaklens version") {
		t.Errorf("expected version line, got %q", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Error("expected commit line")
	}
	if !strings.Contains(output, "built:") {
		t.Error("expected build date line")
	}
}
