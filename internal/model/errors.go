package model

import "errors"

// Sentinel errors for the per-unit pipeline. Checked with errors.Is to
// decide whether a failure aborts one source unit or the whole batch.
var (
	// ErrNoClass indicates a source unit declares no class at all.
	ErrNoClass = errors.New("no class declaration found")

	// ErrUnresolved indicates a required ancestor or forced class could
	// not be located in the registry.
	ErrUnresolved = errors.New("class cannot be resolved")

	// ErrAttribution indicates an unexpected failure while probing a
	// member's owner. Per-name "not a callable" outcomes are not errors.
	ErrAttribution = errors.New("member attribution failed")

	// ErrMalformedSection indicates a composed section would not survive a
	// parse round-trip of the document markup.
	ErrMalformedSection = errors.New("section would break document markup")
)
