// cmd/netloginsight/commands_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), version) {
		t.Errorf("output = %q, want prefix %q", out.String(), version)
	}
	if !strings.Contains(out.String(), "platform: ") {
		t.Errorf("output missing platform: %q", out.String())
	}
}

func TestServeCmdInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("history:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "serve"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Execute() error = %v, want invalid config", err)
	}
}

func TestServeCmdRejectsArgs(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "extra"})

	if err := root.Execute(); err == nil {
		t.Error("expected error for positional argument")
	}
}
