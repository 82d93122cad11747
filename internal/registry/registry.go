// Package registry maintains the process-wide class table: which file
// declares each class, its direct bases, its directly-declared members, and
// its inline configuration block. Files are parsed at most once; all caches
// are safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/theorbtwo/podherit/internal/discover"
	"github.com/theorbtwo/podherit/internal/lang"
	"github.com/theorbtwo/podherit/internal/model"
	"github.com/theorbtwo/podherit/internal/mro"
	"github.com/theorbtwo/podherit/internal/parse"
)

type classRecord struct {
	decl     *model.ClassDecl
	path     string
	language string
	// external marks a stub for a base outside the scanned tree: it has no
	// members and no bases of its own.
	external bool
}

// Registry resolves classes across a scanned source tree.
type Registry struct {
	root  string
	files []discover.FileEntry
	pol   mro.Policy
	log   *log.Logger

	sf singleflight.Group

	mu      sync.Mutex
	parsed  map[string]*model.FileDecls
	classes map[string]*classRecord
	byLeaf  map[string][]string // last name segment -> class ids

	allOnce sync.Once
}

// New builds a registry over the discovered files. Nothing is parsed until
// first use.
func New(root string, files []discover.FileEntry, pol mro.Policy, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{
		root:    root,
		files:   files,
		pol:     pol,
		log:     logger,
		parsed:  make(map[string]*model.FileDecls),
		classes: make(map[string]*classRecord),
		byLeaf:  make(map[string][]string),
	}
}

// FileDecls parses one source file (cached) and returns its declarations.
func (r *Registry) FileDecls(rel string) (*model.FileDecls, error) {
	return r.ensureFile(rel)
}

func (r *Registry) ensureFile(rel string) (*model.FileDecls, error) {
	r.mu.Lock()
	if fd, ok := r.parsed[rel]; ok {
		r.mu.Unlock()
		return fd, nil
	}
	r.mu.Unlock()

	v, err, _ := r.sf.Do(rel, func() (any, error) {
		r.mu.Lock()
		if fd, ok := r.parsed[rel]; ok {
			r.mu.Unlock()
			return fd, nil
		}
		r.mu.Unlock()

		langName := lang.ForExtension(filepath.Ext(rel))
		l, ok := lang.Languages[langName]
		if !ok {
			return nil, fmt.Errorf("%s: unsupported file type", rel)
		}
		source, err := os.ReadFile(filepath.Join(r.root, rel))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		fd, err := parse.File(l, l.NewParser(), source, rel)
		if err != nil {
			return nil, err
		}
		r.register(fd)
		return fd, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.FileDecls), nil
}

func (r *Registry) register(fd *model.FileDecls) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsed[fd.Path] = fd
	for i := range fd.Classes {
		decl := &fd.Classes[i]
		if prev, ok := r.classes[decl.Name]; ok {
			r.log.Warn("duplicate class declaration",
				"class", decl.Name, "file", fd.Path, "kept", prev.path)
			continue
		}
		r.classes[decl.Name] = &classRecord{
			decl:     decl,
			path:     fd.Path,
			language: fd.Language,
		}
		leaf := leafName(decl.Name)
		r.byLeaf[leaf] = append(r.byLeaf[leaf], decl.Name)
	}
}

// ensureAll parses every discovered file, concurrently, at most once.
func (r *Registry) ensureAll() {
	r.allOnce.Do(func() {
		numWorkers := runtime.GOMAXPROCS(0)
		if numWorkers > len(r.files) {
			numWorkers = len(r.files)
		}
		if numWorkers < 1 {
			return
		}
		work := make(chan string, len(r.files))
		var wg sync.WaitGroup
		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for rel := range work {
					if _, err := r.ensureFile(rel); err != nil {
						r.log.Warn("skipping unparseable file", "file", rel, "err", err)
					}
				}
			}()
		}
		for _, f := range r.files {
			work <- f.Path
		}
		close(work)
		wg.Wait()
	})
}

func leafName(class string) string {
	if i := strings.LastIndex(class, "::"); i >= 0 {
		return class[i+2:]
	}
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}

// lookup resolves a class reference to its record: exact match first, then
// an unambiguous last-segment match.
func (r *Registry) lookup(name string) (string, *classRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.classes[name]; ok {
		return name, rec
	}
	if ids := r.byLeaf[leafName(name)]; len(ids) == 1 {
		return ids[0], r.classes[ids[0]]
	}
	return "", nil
}

// find resolves a class, parsing the remaining discovered files on a cache
// miss. Every accessor goes through it, so none requires a prior Load.
func (r *Registry) find(name string) (string, *classRecord) {
	if id, rec := r.lookup(name); rec != nil {
		return id, rec
	}
	r.ensureAll()
	return r.lookup(name)
}

// Load ensures a class is resolvable. It fails with model.ErrUnresolved if
// the class is declared nowhere in the scanned tree and is not a registered
// external stub.
func (r *Registry) Load(class string) error {
	if _, rec := r.find(class); rec != nil {
		return nil
	}
	return fmt.Errorf("%s: %w", class, model.ErrUnresolved)
}

// resolveOrStub resolves a base reference, registering an external stub when
// the base lives outside the scanned tree. Stubs keep foreign bases in the
// ancestor sequence without ever contributing members.
func (r *Registry) resolveOrStub(name string) string {
	if id, rec := r.find(name); rec != nil {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[name]; !ok {
		r.log.Debug("external base, no declaration in tree", "class", name)
		r.classes[name] = &classRecord{
			decl:     &model.ClassDecl{Name: name},
			external: true,
		}
	}
	return name
}

// DirectBases returns a class's direct bases in declaration order, resolved
// to registry identifiers.
func (r *Registry) DirectBases(class string) ([]string, error) {
	_, rec := r.find(class)
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", class, model.ErrUnresolved)
	}
	if rec.external {
		return nil, nil
	}
	bases := make([]string, 0, len(rec.decl.Bases))
	for _, b := range rec.decl.Bases {
		bases = append(bases, r.resolveOrStub(b))
	}
	return bases, nil
}

// DirectMembers returns the names declared directly in a class's own body,
// sorted alphabetically (the registry's default enumeration order).
func (r *Registry) DirectMembers(class string) ([]model.Binding, error) {
	_, rec := r.find(class)
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", class, model.ErrUnresolved)
	}
	out := append([]model.Binding(nil), rec.decl.Bindings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeclaredConfig returns a class's inline configuration block, if any.
func (r *Registry) DeclaredConfig(class string) (*model.DeclaredConfig, bool) {
	_, rec := r.find(class)
	if rec == nil || rec.decl.Config == nil {
		return nil, false
	}
	return rec.decl.Config, true
}

// Language returns the language a class was declared in, or "" for stubs.
func (r *Registry) Language(class string) string {
	_, rec := r.find(class)
	if rec == nil {
		return ""
	}
	return rec.language
}

// ResolveOwner walks start's method-resolution order and reports which class
// truly supplies the callable bound to name, following alias bindings to
// their target. ok is false when the first binding found is a non-callable
// slot or no class binds the name at all.
func (r *Registry) ResolveOwner(start, name string) (string, bool, error) {
	seq, err := mro.Linearize(r, start, r.pol)
	if err != nil {
		if errors.Is(err, mro.ErrInconsistent) {
			r.log.Warn("falling back to depth-first linearization", "class", start)
			seq, err = mro.Linearize(r, start, mro.DFS)
		}
		if err != nil {
			return "", false, err
		}
	}
	for _, class := range seq {
		_, rec := r.lookup(class)
		if rec == nil {
			continue
		}
		for i := range rec.decl.Bindings {
			b := &rec.decl.Bindings[i]
			if b.Name != name {
				continue
			}
			switch b.Kind {
			case model.MethodBinding:
				return class, true, nil
			case model.AliasBinding:
				return r.resolveOrStub(b.AliasTarget), true, nil
			default:
				// A data slot shadows the name without supplying a callable.
				return "", false, nil
			}
		}
	}
	return "", false, nil
}
