// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and their class/member extraction callbacks.
//
// Extraction uses direct node traversal rather than tree-sitter's query
// language: base lists, binding kinds, and inline config literals need
// structural context that tag queries cannot express.
package lang

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/theorbtwo/podherit/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration and inheritance-documentation
// policy for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// ExtractFile returns the leading documentation block and every class
	// declared in the parsed file, in declaration order.
	ExtractFile func(root *sitter.Node, source []byte) (string, []model.ClassDecl)

	// OperatorLabels maps operator-overload member names to the operator
	// they implement. Names in this table are displayed as operator
	// pseudo-members rather than plain method names.
	OperatorLabels map[string]string

	// LifecycleHooks are construction/destruction/meta hook names that are
	// never documented.
	LifecycleHooks map[string]struct{}

	// UniversalBases are implicit roots shared by every class; members
	// resolving to one of these are never attributed.
	UniversalBases map[string]struct{}

	// IsUnderscored reports whether a member name is private by the
	// language's naming convention.
	IsUnderscored func(name string) bool
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// IsLifecycle reports whether name is a lifecycle/meta hook.
func (l *Language) IsLifecycle(name string) bool {
	_, ok := l.LifecycleHooks[name]
	return ok
}

// IsUniversalBase reports whether class is an implicit root.
func (l *Language) IsUniversalBase(class string) bool {
	_, ok := l.UniversalBases[class]
	return ok
}

// DisplayLabel maps a raw member name to its documentation label. Plain
// names pass through unchanged; the overload-dispatch-table pseudo-member
// and operator overloads get human-readable labels.
func (l *Language) DisplayLabel(name string) string {
	if name == "()" {
		return "overload table"
	}
	if strings.HasPrefix(name, "(") {
		return fmt.Sprintf("operator %q", name[1:])
	}
	if op, ok := l.OperatorLabels[name]; ok {
		return fmt.Sprintf("operator %q", op)
	}
	return name
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
