package main

import (
	"bytes"
	"strings"
	"testing"
)

func runRootCommandForTest(args ...string) (string, error) {
	root := buildRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelpListsSubcommands(t *testing.T) {
	output, err := runRootCommandForTest("--help")
	if err != nil {
		t.Fatalf("execute --help: %v\nOutput:\n%s", err, output)
	}

	for _, sub := range []string{"onboard", "chat", "serve", "reset", "status", "version"} {
		if !strings.Contains(output, sub) {
			t.Errorf("root help missing subcommand %q", sub)
		}
	}
}

func TestRootWithoutSubcommandFails(t *testing.T) {
	if _, err := runRootCommandForTest(); err == nil {
		t.Fatal("expected an error when no subcommand is given")
	}
}

func TestVersionFlag(t *testing.T) {
	if _, err := runRootCommandForTest("--version"); err != nil {
		t.Fatalf("execute --version: %v", err)
	}
}
