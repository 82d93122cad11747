package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theorbtwo/podherit/internal/config"
	"github.com/theorbtwo/podherit/internal/pod"
)

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	applyFlagOverrides(cfg, rootFlags{
		langs:     []string{"ruby"},
		format:    "%c::%m",
		mroPolicy: "c3",
	})
	if len(cfg.Langs) != 1 || cfg.Langs[0] != "ruby" {
		t.Errorf("langs = %v", cfg.Langs)
	}
	if cfg.MethodFormat != "%c::%m" {
		t.Errorf("format = %q", cfg.MethodFormat)
	}
	if cfg.MRO != "c3" {
		t.Errorf("mro = %q", cfg.MRO)
	}
}

func TestApplyFlagOverridesEmptyKeepsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MethodFormat = "%m()"
	cfg.MRO = "c3"
	cfg.Langs = []string{"python"}

	applyFlagOverrides(cfg, rootFlags{})

	if cfg.MethodFormat != "%m()" || cfg.MRO != "c3" || len(cfg.Langs) != 1 {
		t.Errorf("flag defaults clobbered config: %+v", cfg)
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("base.py", "class Base:\n    def ping(self):\n        pass\n")
	write("sub.py", "class Sub(Base):\n    def pong(self):\n        pass\n")

	if err := run(root, rootFlags{configPath: defaultConfigPath}, false); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "sub.pod"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, pod.Marker+"\n") {
		t.Error("output missing generated marker")
	}
	if !strings.Contains(text, "=head2 Base") || !strings.Contains(text, "ping") {
		t.Errorf("output missing attribution:\n%s", text)
	}
}

func TestRunMissingRoot(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "nope"), rootFlags{configPath: defaultConfigPath}, false)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestRunExplicitConfigMissing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("class A:\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := run(root, rootFlags{configPath: "absent.yaml"}, true)
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("class A:\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := run(root, rootFlags{configPath: defaultConfigPath, langs: []string{"perl"}}, false)
	if err == nil || !strings.Contains(err.Error(), "unsupported language") {
		t.Fatalf("err = %v", err)
	}
}
