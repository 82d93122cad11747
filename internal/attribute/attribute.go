// Package attribute assigns every member name reachable from a class to the
// single ancestor that truly defines it, producing the grouped section model
// that drives documentation output.
package attribute

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/theorbtwo/podherit/internal/config"
	"github.com/theorbtwo/podherit/internal/model"
)

// Registry is the slice of the class registry the attributor needs.
type Registry interface {
	// DirectMembers enumerates names declared directly in a class's own
	// body, not names merely visible through it.
	DirectMembers(class string) ([]model.Binding, error)
	// ResolveOwner reports which class supplies the callable bound to name
	// when looked up starting at start. ok is false for non-callable slots.
	ResolveOwner(start, name string) (owner string, ok bool, err error)
}

// Policy carries the language-specific filtering rules.
type Policy struct {
	IsLifecycle     func(name string) bool
	IsUnderscored   func(name string) bool
	IsUniversalBase func(class string) bool
	DisplayLabel    func(name string) string
}

// Options configures one attribution run.
type Options struct {
	// Class is the class under documentation.
	Class string
	// Sequence is the merged working ancestor sequence, in order.
	Sequence []string
	// Forced ancestors may supply members the class itself cannot resolve.
	Forced []string
	// Configs resolves per-ancestor effective configuration.
	Configs *config.Resolver
	Log     *log.Logger
}

// Attribute walks the working ancestor sequence and groups member display
// labels by documentation target. First-seen wins: a name attributed once is
// never attributed again later in the sequence. Returns nil when no ancestor
// contributes anything.
func Attribute(reg Registry, pol Policy, opts Options) (*model.SectionModel, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard)
	}

	order := append([]string(nil), opts.Sequence...)
	members := make(map[string][]string)
	attributed := make(map[string]string)

	for _, anc := range opts.Sequence {
		cfg := opts.Configs.For(anc)

		bindings, err := reg.DirectMembers(anc)
		if err != nil {
			return nil, fmt.Errorf("%w: enumerating %s: %w", model.ErrAttribution, anc, err)
		}

		for i := range bindings {
			name := bindings[i].Name

			if cfg.SkipUnderscored && pol.IsUnderscored(name) {
				continue
			}
			if _, dup := attributed[name]; dup {
				continue
			}
			if pol.IsLifecycle(name) {
				continue
			}

			owner, ok, err := resolveWithFallback(reg, opts, name)
			if err != nil {
				if errors.Is(err, model.ErrUnresolved) {
					logger.Debug("cannot probe member, treating as non-callable",
						"class", anc, "member", name, "err", err)
					continue
				}
				return nil, fmt.Errorf("%w: probing %s.%s: %w", model.ErrAttribution, anc, name, err)
			}
			if !ok {
				// Non-callable slot (cache placeholder, constant).
				continue
			}
			if pol.IsUniversalBase(owner) {
				continue
			}
			if owner != anc {
				logger.Warn("probable unexpected import, not documenting",
					"class", anc, "member", name, "owner", owner)
				continue
			}

			attributed[name] = anc
			target := anc
			if mapped, okm := cfg.ClassMap[anc]; okm {
				target = mapped
			}
			if target != anc {
				order = insertBefore(order, anc, target)
			}
			members[target] = append(members[target], pol.DisplayLabel(name))
		}
	}

	if len(members) == 0 {
		return nil, nil
	}
	return &model.SectionModel{Order: order, Members: members}, nil
}

// resolveWithFallback probes the class under documentation first, then each
// forced ancestor: forced ancestors may supply members the main class does
// not expose through its real ancestry.
func resolveWithFallback(reg Registry, opts Options, name string) (string, bool, error) {
	owner, ok, err := reg.ResolveOwner(opts.Class, name)
	if err != nil || ok {
		return owner, ok, err
	}
	for _, f := range opts.Forced {
		owner, ok, err = reg.ResolveOwner(f, name)
		if err != nil || ok {
			return owner, ok, err
		}
	}
	return "", false, nil
}

// insertBefore places target immediately before anchor, exactly once. A
// target already present anywhere in the order is left where it is.
func insertBefore(order []string, anchor, target string) []string {
	for _, c := range order {
		if c == target {
			return order
		}
	}
	for i, c := range order {
		if c == anchor {
			out := make([]string, 0, len(order)+1)
			out = append(out, order[:i]...)
			out = append(out, target)
			out = append(out, order[i:]...)
			return out
		}
	}
	return append(order, target)
}
