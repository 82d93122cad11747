package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theorbtwo/podherit/internal/model"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, cfg.SkipUnderscored)
	assert.Equal(t, "%m", cfg.MethodFormat)
	assert.Equal(t, "dfs", cfg.MRO)
}

func TestLoadMissingOptional(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.NoError(t, err)
	assert.True(t, cfg.SkipUnderscored)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".podherit.yaml")
	content := `
skip_underscored: false
method_format: "L<%m|%c/%m>"
mro: c3
class_map:
  Impl: Public
skip_inherits: [TestMixin]
force_inherits:
  lib/widget.py: [RenderSupport]
  Widget: [OtherSupport]
skip_classes:
  - scratch.py
  - LegacyShim
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.False(t, cfg.SkipUnderscored)
	assert.Equal(t, "L<%m|%c/%m>", cfg.MethodFormat)
	assert.Equal(t, "c3", cfg.MRO)
	assert.Equal(t, "Public", cfg.ClassMap["Impl"])
	assert.Equal(t, []string{"TestMixin"}, cfg.SkipInherits)
}

func TestLoadRejectsBadMRO(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".podherit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mro: alphabetical\n"), 0o644))
	_, err := Load(path, false)
	require.Error(t, err)
}

func TestForcedForPathPrecedence(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ForceInherits = map[string][]string{
		"lib/widget.py": {"FromPath"},
		"Widget":        {"FromClass"},
	}

	assert.Equal(t, []string{"FromPath"}, cfg.ForcedFor("lib/widget.py", "Widget"))
	assert.Equal(t, []string{"FromClass"}, cfg.ForcedFor("other/place.py", "Widget"))
	assert.Nil(t, cfg.ForcedFor("other/place.py", "Unknown"))
}

func TestSkipClass(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SkipClasses = []string{"scratch.py", "LegacyShim"}

	assert.True(t, cfg.SkipClass("scratch.py", "Anything"))
	assert.True(t, cfg.SkipClass("lib/real.py", "LegacyShim"))
	assert.False(t, cfg.SkipClass("lib/real.py", "Real"))
}

func TestResolverInheritsDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ClassMap = map[string]string{"A": "B"}
	r := NewResolver(cfg, func(string) (*model.DeclaredConfig, bool) { return nil, false })

	cc := r.For("Anything")
	assert.True(t, cc.SkipUnderscored)
	assert.Equal(t, "B", cc.ClassMap["A"])
}

func TestResolverDeclaredOverride(t *testing.T) {
	t.Parallel()

	off := false
	r := NewResolver(Default(), func(class string) (*model.DeclaredConfig, bool) {
		if class == "Open" {
			return &model.DeclaredConfig{SkipUnderscored: &off}, true
		}
		return nil, false
	})

	assert.False(t, r.For("Open").SkipUnderscored)
	assert.True(t, r.For("Other").SkipUnderscored)
}

func TestResolverFirstWriterWins(t *testing.T) {
	t.Parallel()

	calls := 0
	off := false
	r := NewResolver(Default(), func(class string) (*model.DeclaredConfig, bool) {
		calls++
		return &model.DeclaredConfig{SkipUnderscored: &off}, true
	})

	first := r.For("Ancestor")
	second := r.For("Ancestor")
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}
