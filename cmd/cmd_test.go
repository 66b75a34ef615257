package cmd

import (
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	t.Parallel()

	want := []string{"serve", "ingest", "remove", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestIngestArgs(t *testing.T) {
	t.Parallel()

	if err := ingestCmd.Args(ingestCmd, nil); err == nil {
		t.Error("ingest with no args should be rejected")
	}
	if err := ingestCmd.Args(ingestCmd, []string{"r1"}); err != nil {
		t.Errorf("ingest with report id should be accepted: %v", err)
	}
	if err := ingestCmd.Args(ingestCmd, []string{"r1", "report.md", "extra"}); err == nil {
		t.Error("ingest with three args should be rejected")
	}
	if err := removeCmd.Args(removeCmd, []string{"r1", "r2"}); err == nil {
		t.Error("remove with two args should be rejected")
	}
}
