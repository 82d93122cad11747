package config

import (
	"sync"

	"github.com/theorbtwo/podherit/internal/model"
)

// Resolver computes the effective per-ancestor configuration: a class's
// declared inline block merged over the run-wide default. Results are
// computed at most once per class and reused across source classes, so the
// first run to visit an ancestor fixes its configuration for the whole
// process.
type Resolver struct {
	def      model.ClassConfig
	declared func(class string) (*model.DeclaredConfig, bool)

	mu    sync.Mutex
	cache map[string]*model.ClassConfig
}

// NewResolver builds a Resolver over the run default. declared looks up a
// class's inline config block, typically registry-backed.
func NewResolver(cfg *Config, declared func(class string) (*model.DeclaredConfig, bool)) *Resolver {
	return &Resolver{
		def: model.ClassConfig{
			SkipUnderscored: cfg.SkipUnderscored,
			ClassMap:        cfg.ClassMap,
		},
		declared: declared,
		cache:    make(map[string]*model.ClassConfig),
	}
}

// For returns the effective configuration for class.
func (r *Resolver) For(class string) *model.ClassConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cc, ok := r.cache[class]; ok {
		return cc
	}

	eff := &model.ClassConfig{
		SkipUnderscored: r.def.SkipUnderscored,
		ClassMap:        r.def.ClassMap,
	}
	if r.declared != nil {
		if decl, ok := r.declared(class); ok && decl != nil {
			if decl.SkipUnderscored != nil {
				eff.SkipUnderscored = *decl.SkipUnderscored
			}
			if decl.ClassMap != nil {
				eff.ClassMap = decl.ClassMap
			}
		}
	}
	r.cache[class] = eff
	return eff
}
