package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/theorbtwo/podherit/internal/config"
)

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitWritesStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".podherit.yaml")

	out, err := runInit(t, path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// The starter file must parse as a valid configuration.
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("starter config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("starter config invalid: %v", err)
	}
	if !cfg.SkipUnderscored || cfg.MethodFormat != "%m" || cfg.MRO != "dfs" {
		t.Errorf("starter values differ from defaults: %+v", cfg)
	}
}

func TestInitRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".podherit.yaml")
	if err := os.WriteFile(path, []byte("mro: c3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runInit(t, path); err == nil {
		t.Fatal("expected refusal without --force")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mro: c3\n" {
		t.Error("existing file was modified")
	}
}

func TestInitForceReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".podherit.yaml")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runInit(t, path, "--force"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "skip_underscored") {
		t.Error("file not replaced with starter config")
	}
}
