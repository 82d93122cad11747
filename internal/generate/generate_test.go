package generate

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theorbtwo/podherit/internal/config"
	"github.com/theorbtwo/podherit/internal/discover"
	"github.com/theorbtwo/podherit/internal/model"
	"github.com/theorbtwo/podherit/internal/mro"
	"github.com/theorbtwo/podherit/internal/pod"
	"github.com/theorbtwo/podherit/internal/registry"
)

const animalPy = `class Animal:
    def speak(self):
        pass

    def eat(self):
        pass
`

const dogPy = `"""=head1 NAME

Dog - a loyal companion

=head1 DESCRIPTION

Barks.

=head1 AUTHOR

Kennel Team.
"""

from animal import Animal

class Dog(Animal):
    def bark(self):
        pass
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newGenerator(t *testing.T, root string, mutate func(*config.Config)) *Generator {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	files, err := discover.Sources(root, nil)
	require.NoError(t, err)
	logger := log.New(io.Discard)
	reg := registry.New(root, files, mro.Policy(cfg.MRO), logger)
	return &Generator{
		Registry: reg,
		Config:   cfg,
		Configs:  config.NewResolver(cfg, reg.DeclaredConfig),
		Log:      logger,
		Root:     root,
	}
}

func TestProcessFileWritesSection(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	g := newGenerator(t, root, nil)

	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	require.True(t, res.Written)
	require.Equal(t, filepath.Join(root, "dog.pod"), res.Output)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, pod.Marker+"\n"), "missing marker first line")
	assert.Contains(t, text, "=head1 INHERITED METHODS")
	assert.Contains(t, text, "=head2 Animal")
	assert.Contains(t, text, "eat, speak")
	assert.NotContains(t, text, "bark")

	// The new section lands before the trailing AUTHOR section.
	inh := strings.Index(text, "=head1 INHERITED METHODS")
	auth := strings.Index(text, "=head1 AUTHOR")
	require.Greater(t, auth, inh)
}

func TestProcessFileIdempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})

	g := newGenerator(t, root, nil)
	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	first, err := os.ReadFile(res.Output)
	require.NoError(t, err)

	// Fresh generator over the same tree, seeing its own prior output.
	g2 := newGenerator(t, root, nil)
	res2, err := g2.ProcessFile("dog.py")
	require.NoError(t, err)
	require.True(t, res2.Written)
	second, err := os.ReadFile(res2.Output)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestProcessFileMarkerGuard(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	handWritten := "=head1 NAME\n\nHand-maintained docs.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "dog.pod"), []byte(handWritten), 0o644))

	g := newGenerator(t, root, nil)
	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, "existing file lacks generated marker", res.Skipped)

	data, err := os.ReadFile(filepath.Join(root, "dog.pod"))
	require.NoError(t, err)
	assert.Equal(t, handWritten, string(data))
}

func TestProcessFileNoAncestorsNoFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
	})
	g := newGenerator(t, root, nil)

	res, err := g.ProcessFile("animal.py")
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, "no contributing ancestors", res.Skipped)
	_, statErr := os.Stat(res.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessFileSkipInheritsEmptiesSequence(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	g := newGenerator(t, root, func(c *config.Config) {
		c.SkipInherits = []string{"Animal"}
	})

	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, "no contributing ancestors", res.Skipped)
}

func TestProcessFileSkipClasses(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	g := newGenerator(t, root, func(c *config.Config) {
		c.SkipClasses = []string{"Dog"}
	})

	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	assert.Equal(t, "no contributing ancestors", res.Skipped)
}

func TestProcessFileDryRun(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	g := newGenerator(t, root, nil)
	g.DryRun = true

	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, "dry run", res.Skipped)
	assert.Contains(t, res.Content, "=head1 INHERITED METHODS")
	_, statErr := os.Stat(res.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessFileNoClasses(t *testing.T) {
	root := writeTree(t, map[string]string{
		"util.py": "def helper():\n    pass\n",
	})
	g := newGenerator(t, root, nil)

	_, err := g.ProcessFile("util.py")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoClass)
}

func TestProcessFileOutDirMirror(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/animal.py": animalPy,
		"pkg/dog.py":    strings.ReplaceAll(dogPy, "from animal", "from pkg.animal"),
	})
	outDir := t.TempDir()
	g := newGenerator(t, root, nil)
	g.OutDir = outDir

	res, err := g.ProcessFile(filepath.Join("pkg", "dog.py"))
	require.NoError(t, err)
	require.True(t, res.Written)
	assert.Equal(t, filepath.Join(outDir, "pkg", "dog.pod"), res.Output)
	_, statErr := os.Stat(res.Output)
	assert.NoError(t, statErr)
}

func TestProcessFileMultipleClassesTitled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"pets.py": `class Dog(Animal):
    def bark(self):
        pass

class Cat(Animal):
    def meow(self):
        pass
`,
	})
	g := newGenerator(t, root, nil)

	res, err := g.ProcessFile("pets.py")
	require.NoError(t, err)
	require.True(t, res.Written)
	assert.Contains(t, res.Content, "=head1 INHERITED METHODS FOR Dog")
	assert.Contains(t, res.Content, "=head1 INHERITED METHODS FOR Cat")
}

func TestProcessFileMethodFormat(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
	})
	g := newGenerator(t, root, func(c *config.Config) {
		c.MethodFormat = "%c::%m"
	})

	res, err := g.ProcessFile("dog.py")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "Animal::eat, Animal::speak")
}

func TestRunBatch(t *testing.T) {
	root := writeTree(t, map[string]string{
		"animal.py": animalPy,
		"dog.py":    dogPy,
		"empty.py":  "x = 1\n",
	})
	g := newGenerator(t, root, nil)

	files, err := discover.Sources(root, nil)
	require.NoError(t, err)
	results, failed := g.Run(files)

	// empty.py has no classes and counts as a failed unit.
	assert.Equal(t, 1, failed)
	require.Len(t, results, 2)
	assert.Equal(t, "animal.py", results[0].Source)
	assert.Equal(t, "dog.py", results[1].Source)
}
