package main

import "testing"

func TestNewRootCommandStructure(t *testing.T) {
	root := newRootCommand()
	if root == nil {
		t.Fatal("newRootCommand() returned nil")
	}
	if !root.HasSubCommands() {
		t.Fatal("root command should have subcommands")
	}

	expected := []string{
		"start-node", "stop-node", "send-dmx", "send-rdm", "send-sync",
		"send-diagnostic", "state", "enqueue-command",
	}
	for _, name := range expected {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestNewRootCommandPersistentFlags(t *testing.T) {
	root := newRootCommand()
	flags := root.PersistentFlags()
	for _, name := range []string{"config", "log-level", "log-format"} {
		if flags.Lookup(name) == nil {
			t.Errorf("expected persistent flag %q not found", name)
		}
	}
}

func TestNewRootCommandHelpDoesNotError(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"--help"})
	root.SetOut(new(nopWriter))
	if err := root.Execute(); err != nil {
		t.Errorf("--help returned error: %v", err)
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
