package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/theorbtwo/podherit/internal/model"
)

// pythonConfigName is the class-body assignment recognized as an inline
// per-class configuration block.
const pythonConfigName = "_podherit_config"

func init() {
	Languages["python"] = &Language{
		Name:        "python",
		Extensions:  []string{".py"},
		lang:        python.GetLanguage(),
		ExtractFile: pythonExtractFile,
		OperatorLabels: map[string]string{
			"__add__":      "+",
			"__sub__":      "-",
			"__mul__":      "*",
			"__truediv__":  "/",
			"__floordiv__": "//",
			"__mod__":      "%",
			"__pow__":      "**",
			"__matmul__":   "@",
			"__lshift__":   "<<",
			"__rshift__":   ">>",
			"__and__":      "&",
			"__or__":       "|",
			"__xor__":      "^",
			"__invert__":   "~",
			"__neg__":      "-@",
			"__pos__":      "+@",
			"__eq__":       "==",
			"__ne__":       "!=",
			"__lt__":       "<",
			"__le__":       "<=",
			"__gt__":       ">",
			"__ge__":       ">=",
			"__getitem__":  "[]",
			"__setitem__":  "[]=",
			"__contains__": "in",
			"__call__":     "()",
			"__iter__":     "iter",
			"__len__":      "len",
			"__str__":      "str",
			"__repr__":     "repr",
			"__hash__":     "hash",
		},
		LifecycleHooks: map[string]struct{}{
			"__init__":          {},
			"__new__":           {},
			"__del__":           {},
			"__init_subclass__": {},
			"__set_name__":      {},
			"__class_getitem__": {},
			"__subclasshook__":  {},
			"__enter__":         {},
			"__exit__":          {},
		},
		UniversalBases: map[string]struct{}{
			"object": {},
		},
		IsUnderscored: pythonIsUnderscored,
	}
}

// pythonIsUnderscored reports whether name is private by convention.
// Dunders are not private; they are either lifecycle hooks or operator
// overloads and are handled separately.
func pythonIsUnderscored(name string) bool {
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4 {
		return false
	}
	return strings.HasPrefix(name, "_")
}

func pythonExtractFile(root *sitter.Node, source []byte) (string, []model.ClassDecl) {
	doc := pythonModuleDoc(root, source)
	var classes []model.ClassDecl
	pythonWalkClasses(root, "", source, &classes)
	return doc, classes
}

// pythonModuleDoc returns the module docstring, or "".
func pythonModuleDoc(root *sitter.Node, source []byte) string {
	if root.NamedChildCount() == 0 {
		return ""
	}
	first := root.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.TrimSpace(pythonStringContent(str, source))
}

// pythonStringContent returns the text of a string literal without quotes.
func pythonStringContent(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "string_content" {
			return NodeText(child, source)
		}
	}
	// Older grammar versions have no string_content node: strip quote runs.
	text := NodeText(node, source)
	text = strings.TrimLeft(text, "rbuRBU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return text[len(q) : len(text)-len(q)]
		}
	}
	return text
}

func pythonWalkClasses(node *sitter.Node, scope string, source []byte, out *[]model.ClassDecl) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		def := child
		if def.Type() == "decorated_definition" {
			if d := def.ChildByFieldName("definition"); d != nil {
				def = d
			}
		}
		if def.Type() == "class_definition" {
			decl, body := pythonClassDecl(def, scope, source)
			if decl.Name != "" {
				*out = append(*out, decl)
				if body != nil {
					pythonWalkClasses(body, decl.Name, source, out)
				}
			}
			continue
		}
		// Classes nested in functions are invisible to the registry;
		// only descend into structural containers.
		switch child.Type() {
		case "if_statement", "try_statement", "with_statement":
			pythonWalkClasses(child, scope, source, out)
		}
	}
}

func pythonClassDecl(node *sitter.Node, scope string, source []byte) (model.ClassDecl, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.ClassDecl{}, nil
	}
	name := NodeText(nameNode, source)
	if scope != "" {
		name = scope + "." + name
	}

	decl := model.ClassDecl{
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
	}

	if args := node.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			switch arg.Type() {
			case "identifier", "attribute":
				decl.Bases = append(decl.Bases, NodeText(arg, source))
			}
			// keyword arguments (metaclass=...) are not bases
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return decl, nil
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		def := stmt
		if def.Type() == "decorated_definition" {
			if d := def.ChildByFieldName("definition"); d != nil {
				def = d
			}
		}
		switch def.Type() {
		case "function_definition":
			if fn := def.ChildByFieldName("name"); fn != nil {
				decl.Bindings = append(decl.Bindings, model.Binding{
					Name: NodeText(fn, source),
					Kind: model.MethodBinding,
					Line: int(def.StartPoint().Row) + 1,
				})
			}
		case "expression_statement":
			if def.NamedChildCount() == 0 {
				continue
			}
			assign := def.NamedChild(0)
			if assign.Type() != "assignment" {
				continue
			}
			left := assign.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" {
				continue
			}
			lname := NodeText(left, source)
			right := assign.ChildByFieldName("right")
			if lname == pythonConfigName {
				if right != nil && right.Type() == "dictionary" {
					decl.Config = pythonParseConfig(right, source)
				}
				continue
			}
			b := model.Binding{
				Name: lname,
				Kind: model.DataBinding,
				Line: int(assign.StartPoint().Row) + 1,
			}
			if right != nil && right.Type() == "attribute" {
				if obj := right.ChildByFieldName("object"); obj != nil {
					b.Kind = model.AliasBinding
					b.AliasTarget = NodeText(obj, source)
				}
			}
			decl.Bindings = append(decl.Bindings, b)
		}
	}

	return decl, body
}

// pythonParseConfig reads a _podherit_config dict literal. Unrecognized keys
// and non-literal values are ignored.
func pythonParseConfig(dict *sitter.Node, source []byte) *model.DeclaredConfig {
	cfg := &model.DeclaredConfig{}
	for i := 0; i < int(dict.NamedChildCount()); i++ {
		pair := dict.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil || key.Type() != "string" {
			continue
		}
		switch pythonStringContent(key, source) {
		case "skip_underscored":
			switch value.Type() {
			case "true":
				v := true
				cfg.SkipUnderscored = &v
			case "false":
				v := false
				cfg.SkipUnderscored = &v
			}
		case "class_map":
			if value.Type() != "dictionary" {
				continue
			}
			cm := make(map[string]string)
			for j := 0; j < int(value.NamedChildCount()); j++ {
				p := value.NamedChild(j)
				if p.Type() != "pair" {
					continue
				}
				k := p.ChildByFieldName("key")
				v := p.ChildByFieldName("value")
				if k == nil || v == nil || k.Type() != "string" || v.Type() != "string" {
					continue
				}
				cm[pythonStringContent(k, source)] = pythonStringContent(v, source)
			}
			if len(cm) > 0 {
				cfg.ClassMap = cm
			}
		}
	}
	if cfg.SkipUnderscored == nil && cfg.ClassMap == nil {
		return nil
	}
	return cfg
}
