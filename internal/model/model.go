// Package model defines core data structures for podherit.
package model

// BindingKind classifies how a name is bound directly in a class body.
type BindingKind string

const (
	// MethodBinding is a method defined in the class body.
	MethodBinding BindingKind = "method"
	// AliasBinding re-exports another class's attribute under a local name.
	AliasBinding BindingKind = "alias"
	// DataBinding is a non-callable class-level slot (constants, caches).
	DataBinding BindingKind = "data"
)

// Binding is a single name declared directly in a class body, not inherited.
type Binding struct {
	Name string
	Kind BindingKind
	// AliasTarget is the class whose attribute this name aliases.
	// Set only when Kind == AliasBinding.
	AliasTarget string
	Line        int
}

// DeclaredConfig is an inline per-class configuration block as written in
// source. Fields are pointers so "not declared" is distinguishable from an
// explicit false/empty value; unset fields inherit the run-wide default.
type DeclaredConfig struct {
	SkipUnderscored *bool
	ClassMap        map[string]string
}

// ClassConfig is the effective per-ancestor configuration used during
// attribution, after merging a declared block with the run-wide default.
type ClassConfig struct {
	SkipUnderscored bool
	ClassMap        map[string]string
}

// ClassDecl is one class declaration extracted from a source file.
type ClassDecl struct {
	Name     string   // scoped name as declared (Outer.Inner, A::B)
	Bases    []string // direct bases in declaration order, as written
	Bindings []Binding
	Config   *DeclaredConfig // inline config block, nil if absent
	Line     int
}

// FileDecls holds everything extracted from one source unit.
type FileDecls struct {
	Path     string // relative to the scan root
	Language string
	Doc      string // leading documentation block, sectioned markup
	Classes  []ClassDecl
}

// SectionModel groups attributed member labels by display-target class.
// Order gives the composition order: the working ancestor sequence, with
// class-map targets inserted immediately before the ancestor they shadow.
type SectionModel struct {
	Order   []string
	Members map[string][]string
}

// Empty reports whether no member was attributed at all.
func (m *SectionModel) Empty() bool {
	return m == nil || len(m.Members) == 0
}
