// Package generate runs the per-source-unit documentation pipeline:
// linearize ancestry, merge overrides, attribute members, compose the
// section, and merge it into the unit's documentation on disk.
package generate

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/theorbtwo/podherit/internal/attribute"
	"github.com/theorbtwo/podherit/internal/compose"
	"github.com/theorbtwo/podherit/internal/config"
	"github.com/theorbtwo/podherit/internal/discover"
	"github.com/theorbtwo/podherit/internal/lang"
	"github.com/theorbtwo/podherit/internal/model"
	"github.com/theorbtwo/podherit/internal/mro"
	"github.com/theorbtwo/podherit/internal/pod"
	"github.com/theorbtwo/podherit/internal/registry"
)

// Generator holds everything one batch run shares.
type Generator struct {
	Registry *registry.Registry
	Config   *config.Config
	Configs  *config.Resolver
	Log      *log.Logger

	// Root is the scan root. OutDir, when set, receives output files
	// mirroring the source layout; otherwise output lands alongside the
	// source.
	Root   string
	OutDir string
	DryRun bool
}

// Result reports the outcome for one source unit.
type Result struct {
	Source  string
	Output  string
	Written bool
	Skipped string // reason, when nothing was written
	Content string // rendered document (dry runs included)
}

// ProcessFile runs the pipeline for one source file. Errors abort this unit
// only; the batch driver reports them and moves on.
func (g *Generator) ProcessFile(rel string) (*Result, error) {
	logger := g.Log
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fd, err := g.Registry.FileDecls(rel)
	if err != nil {
		return nil, err
	}
	if len(fd.Classes) == 0 {
		return nil, fmt.Errorf("%s: %w", rel, model.ErrNoClass)
	}

	l := lang.Languages[fd.Language]
	pol := attribute.Policy{
		IsLifecycle:     l.IsLifecycle,
		IsUnderscored:   l.IsUnderscored,
		IsUniversalBase: l.IsUniversalBase,
		DisplayLabel:    l.DisplayLabel,
	}
	mroPol := mro.Policy(g.Config.MRO)

	type classSection struct {
		class string
		sec   pod.Section
	}
	var sections []classSection
	var classNames []string

	for i := range fd.Classes {
		name := fd.Classes[i].Name
		classNames = append(classNames, name)

		if g.Config.SkipClass(rel, name) {
			logger.Debug("class excluded by configuration", "class", name)
			continue
		}

		raw, err := mro.Linearize(g.Registry, name, mroPol)
		if err != nil {
			if !errors.Is(err, mro.ErrInconsistent) {
				return nil, fmt.Errorf("linearizing %s: %w", name, err)
			}
			logger.Warn("falling back to depth-first linearization", "class", name)
			if raw, err = mro.Linearize(g.Registry, name, mro.DFS); err != nil {
				return nil, fmt.Errorf("linearizing %s: %w", name, err)
			}
		}

		forced := g.Config.ForcedFor(rel, name)
		seq, err := mro.Merge(g.Registry, raw, forced, g.Config.SkipInherits, name, mroPol, logger)
		if err != nil {
			return nil, err
		}
		if len(seq) == 0 {
			logger.Debug("no ancestors after override merge", "class", name)
			continue
		}

		sm, err := attribute.Attribute(g.Registry, pol, attribute.Options{
			Class:    name,
			Sequence: seq,
			Forced:   forced,
			Configs:  g.Configs,
			Log:      logger,
		})
		if err != nil {
			return nil, err
		}
		if sm.Empty() {
			continue
		}

		title := "INHERITED METHODS"
		if len(fd.Classes) > 1 {
			title = "INHERITED METHODS FOR " + name
		}
		sec, err := compose.Compose(sm, title, g.Config.MethodFormat)
		if err != nil {
			return nil, err
		}
		sections = append(sections, classSection{class: name, sec: sec})
	}

	res := &Result{Source: rel, Output: g.outputPath(rel)}
	if len(sections) == 0 {
		res.Skipped = "no contributing ancestors"
		return res, nil
	}

	docText := fd.Doc
	if docText != "" && !strings.HasSuffix(docText, "\n") {
		docText += "\n"
	}
	doc := pod.Parse(docText)
	for _, cs := range sections {
		pod.Insert(doc, cs.sec)
	}

	res.Content = pod.Header(rel, classNames) + doc.Serialize()

	ok, err := pod.CanOverwrite(res.Output)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", res.Output, err)
	}
	if !ok {
		logger.Warn("refusing to overwrite non-generated file", "path", res.Output)
		res.Skipped = "existing file lacks generated marker"
		return res, nil
	}

	if g.DryRun {
		res.Skipped = "dry run"
		return res, nil
	}
	if err := pod.WriteFile(res.Output, []byte(res.Content)); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}

func (g *Generator) outputPath(rel string) string {
	out := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".pod"
	if g.OutDir != "" {
		return filepath.Join(g.OutDir, out)
	}
	return filepath.Join(g.Root, out)
}

// Run processes files concurrently. Per-unit failures are logged and
// counted; they never abort the batch. Results come back sorted by source
// path.
func (g *Generator) Run(files []discover.FileEntry) ([]*Result, int) {
	logger := g.Log
	if logger == nil {
		logger = log.New(io.Discard)
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers < 1 {
		return nil, 0
	}

	work := make(chan string, len(files))
	var mu sync.Mutex
	var results []*Result
	failed := 0

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range work {
				res, err := g.ProcessFile(rel)
				mu.Lock()
				if err != nil {
					logger.Error("unit failed", "file", rel, "err", err)
					failed++
				} else {
					results = append(results, res)
				}
				mu.Unlock()
			}
		}()
	}
	for _, f := range files {
		work <- f.Path
	}
	close(work)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	return results, failed
}
