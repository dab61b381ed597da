package cli

import (
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if output == "" {
		t.Error("expected help output, got empty string")
	}
	if !strings.Contains(output, "partforge") {
		t.Error("expected help to contain 'partforge'")
	}
	if !strings.Contains(output, "assemble") {
		t.Error("expected help to list the assemble command")
	}
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	output, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(output, "1.2.3") {
		t.Errorf("expected version output to contain 1.2.3, got %q", output)
	}
}

func TestRootCommand_VersionAfterHelp(t *testing.T) {
	// The shared command tree keeps parsed flag values between runs; a
	// --help execution must not bleed into the next --version one.
	SetVersion("1.2.3")
	if _, err := execute(t, "--help"); err != nil {
		t.Fatalf("Execute(--help) error = %v", err)
	}

	output, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("Execute(--version) error = %v", err)
	}
	if !strings.Contains(output, "1.2.3") {
		t.Errorf("expected version output to contain 1.2.3, got %q", output)
	}
	if strings.Contains(output, "Usage:") {
		t.Error("version output must not fall through to help")
	}
}

func TestSetVersion_Empty(t *testing.T) {
	before := rootCmd.Version
	SetVersion("")
	if rootCmd.Version != before {
		t.Error("SetVersion(\"\") must not change the version")
	}
}
