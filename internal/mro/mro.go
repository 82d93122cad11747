// Package mro computes method-resolution orders for class ancestry graphs
// and applies configured overrides to them.
package mro

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/theorbtwo/podherit/internal/model"
)

// BaseSource supplies direct base classes, loading class records on demand.
type BaseSource interface {
	Load(class string) error
	DirectBases(class string) ([]string, error)
}

// Policy selects the linearization algorithm.
type Policy string

const (
	// DFS is depth-first left-to-right with first-occurrence dedup.
	DFS Policy = "dfs"
	// C3 is C3 linearization.
	C3 Policy = "c3"
)

// ErrInconsistent reports an ancestry graph with no valid C3 linearization.
// Callers fall back to DFS.
var ErrInconsistent = errors.New("no consistent C3 linearization")

// Linearize returns class's method-resolution order. The result starts with
// class itself; removing it is the merge step's job. Deterministic for a
// fixed ancestry graph.
func Linearize(src BaseSource, class string, pol Policy) ([]string, error) {
	if err := src.Load(class); err != nil {
		return nil, err
	}
	switch pol {
	case C3:
		seq, err := c3Linearize(src, class, map[string]bool{})
		if err != nil {
			return nil, err
		}
		return seq, nil
	default:
		var out []string
		if err := dfsWalk(src, class, map[string]struct{}{}, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func dfsWalk(src BaseSource, class string, seen map[string]struct{}, out *[]string) error {
	if _, ok := seen[class]; ok {
		return nil
	}
	seen[class] = struct{}{}
	*out = append(*out, class)

	bases, err := src.DirectBases(class)
	if err != nil {
		return err
	}
	for _, base := range bases {
		if err := src.Load(base); err != nil {
			return err
		}
		if err := dfsWalk(src, base, seen, out); err != nil {
			return err
		}
	}
	return nil
}

func c3Linearize(src BaseSource, class string, visiting map[string]bool) ([]string, error) {
	if visiting[class] {
		return nil, fmt.Errorf("cyclic ancestry at %s: %w", class, ErrInconsistent)
	}
	visiting[class] = true
	defer delete(visiting, class)

	bases, err := src.DirectBases(class)
	if err != nil {
		return nil, err
	}

	var seqs [][]string
	for _, base := range bases {
		if err := src.Load(base); err != nil {
			return nil, err
		}
		sub, err := c3Linearize(src, base, visiting)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, sub)
	}
	if len(bases) > 0 {
		seqs = append(seqs, append([]string(nil), bases...))
	}

	merged, err := c3Merge(seqs)
	if err != nil {
		return nil, fmt.Errorf("linearizing %s: %w", class, err)
	}
	return append([]string{class}, merged...), nil
}

// c3Merge repeatedly takes the first head that appears in no sequence tail.
func c3Merge(seqs [][]string) ([]string, error) {
	var out []string
	for {
		live := seqs[:0:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		if len(live) == 0 {
			return out, nil
		}
		seqs = live

		var head string
		for _, s := range seqs {
			cand := s[0]
			if inAnyTail(cand, seqs) {
				continue
			}
			head = cand
			break
		}
		if head == "" {
			return nil, ErrInconsistent
		}

		out = append(out, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inAnyTail(class string, seqs [][]string) bool {
	for _, s := range seqs {
		for _, c := range s[1:] {
			if c == class {
				return true
			}
		}
	}
	return false
}

// Merge produces the working ancestor sequence for attribution: forced
// ancestors are loaded and appended (each followed by its own full
// linearization), then skipped ancestors and the class itself are removed
// from anywhere in the sequence, then duplicates collapse to their first
// occurrence. An empty result means the per-class pipeline short-circuits.
func Merge(src BaseSource, raw []string, forced, skipped []string, self string, pol Policy, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	working := append([]string(nil), raw...)

	for _, f := range forced {
		if err := src.Load(f); err != nil {
			return nil, fmt.Errorf("forced ancestor %s: %w: %w", f, model.ErrUnresolved, err)
		}
		working = append(working, f)
		lin, err := Linearize(src, f, pol)
		if err != nil {
			if errors.Is(err, ErrInconsistent) {
				logger.Warn("falling back to depth-first linearization", "class", f)
				lin, err = Linearize(src, f, DFS)
			}
			if err != nil {
				return nil, fmt.Errorf("forced ancestor %s: %w", f, err)
			}
		}
		working = append(working, lin...)
	}

	drop := make(map[string]struct{}, len(skipped)+1)
	for _, s := range skipped {
		drop[s] = struct{}{}
	}
	drop[self] = struct{}{}

	seen := make(map[string]struct{}, len(working))
	var out []string
	for _, c := range working {
		if _, skip := drop[c]; skip {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
