package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunCommand_DryRun_PrintsInvocationsWithoutExecuting(t *testing.T) {
	cmd := NewRootCommand()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--dry-run", "../suite/testdata/variables.robot"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error from dry-run, got: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "mySpecial_Stage") {
		t.Fatalf("expected dry-run output to mention the resolved stage, got: %q", out)
	}
	if !strings.Contains(out, "--variable") {
		t.Fatalf("expected dry-run output to show --variable flags, got: %q", out)
	}
}

func TestRunCommand_NoSuitesFound_Errors(t *testing.T) {
	cmd := NewRootCommand()
	dir := t.TempDir()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--dry-run", dir})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error when no .robot files are found")
	}
}
