package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/theorbtwo/podherit/internal/model"
)

// rubyConfigName is the class-body constant recognized as an inline
// per-class configuration block.
const rubyConfigName = "PODHERIT_CONFIG"

func init() {
	ops := map[string]string{}
	for _, op := range []string{
		"+", "-", "*", "/", "%", "**",
		"==", "!=", "<", "<=", ">", ">=", "<=>", "===", "=~",
		"[]", "[]=", "<<", ">>", "&", "|", "^", "~", "+@", "-@", "!",
	} {
		ops[op] = op
	}

	Languages["ruby"] = &Language{
		Name:           "ruby",
		Extensions:     []string{".rb"},
		lang:           ruby.GetLanguage(),
		ExtractFile:    rubyExtractFile,
		OperatorLabels: ops,
		LifecycleHooks: map[string]struct{}{
			"initialize":             {},
			"inherited":              {},
			"included":               {},
			"extended":               {},
			"prepended":              {},
			"method_added":           {},
			"singleton_method_added": {},
			"method_missing":         {},
			"respond_to_missing?":    {},
		},
		UniversalBases: map[string]struct{}{
			"Object":      {},
			"BasicObject": {},
			"Kernel":      {},
		},
		IsUnderscored: func(name string) bool { return strings.HasPrefix(name, "_") },
	}
}

func rubyExtractFile(root *sitter.Node, source []byte) (string, []model.ClassDecl) {
	doc := rubyLeadingComment(root, source)
	var classes []model.ClassDecl
	rubyWalkClasses(root, "", source, &classes)
	return doc, classes
}

// rubyLeadingComment joins the comment block at the top of the file,
// stripping comment markers.
func rubyLeadingComment(root *sitter.Node, source []byte) string {
	var lines []string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "comment" {
			break
		}
		text := NodeText(child, source)
		text = strings.TrimPrefix(text, "#")
		text = strings.TrimPrefix(text, " ")
		lines = append(lines, text)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func rubyWalkClasses(node *sitter.Node, scope string, source []byte, out *[]model.ClassDecl) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class", "module":
			decl, body := rubyClassDecl(child, scope, source)
			if decl.Name != "" {
				*out = append(*out, decl)
				if body != nil {
					rubyWalkClasses(body, decl.Name, source, out)
				}
			}
		case "body_statement":
			rubyWalkClasses(child, scope, source, out)
		}
	}
}

func rubyClassDecl(node *sitter.Node, scope string, source []byte) (model.ClassDecl, *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.ClassDecl{}, nil
	}
	name := NodeText(nameNode, source)
	if scope != "" {
		name = scope + "::" + name
	}

	decl := model.ClassDecl{
		Name: name,
		Line: int(node.StartPoint().Row) + 1,
	}

	if sup := node.ChildByFieldName("superclass"); sup != nil {
		for i := 0; i < int(sup.NamedChildCount()); i++ {
			c := sup.NamedChild(i)
			if c.Type() == "constant" || c.Type() == "scope_resolution" {
				decl.Bases = append(decl.Bases, NodeText(c, source))
				break
			}
		}
	}

	body := rubyBodyStatement(node)
	if body == nil {
		return decl, nil
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "method":
			if fn := stmt.ChildByFieldName("name"); fn != nil {
				decl.Bindings = append(decl.Bindings, model.Binding{
					Name: NodeText(fn, source),
					Kind: model.MethodBinding,
					Line: int(stmt.StartPoint().Row) + 1,
				})
			}
		case "singleton_method":
			if fn := stmt.ChildByFieldName("name"); fn != nil {
				decl.Bindings = append(decl.Bindings, model.Binding{
					Name: NodeText(fn, source),
					Kind: model.MethodBinding,
					Line: int(stmt.StartPoint().Row) + 1,
				})
			}
		case "call", "command":
			// include/prepend mixins extend the base list in order.
			m := stmt.ChildByFieldName("method")
			if m == nil {
				continue
			}
			switch NodeText(m, source) {
			case "include", "prepend":
				if args := stmt.ChildByFieldName("arguments"); args != nil {
					for j := 0; j < int(args.NamedChildCount()); j++ {
						a := args.NamedChild(j)
						if a.Type() == "constant" || a.Type() == "scope_resolution" {
							decl.Bases = append(decl.Bases, NodeText(a, source))
						}
					}
				}
			}
		case "assignment":
			left := stmt.ChildByFieldName("left")
			right := stmt.ChildByFieldName("right")
			if left == nil || left.Type() != "constant" {
				continue
			}
			lname := NodeText(left, source)
			if lname == rubyConfigName {
				if right != nil && right.Type() == "hash" {
					decl.Config = rubyParseConfig(right, source)
				}
				continue
			}
			b := model.Binding{
				Name: lname,
				Kind: model.DataBinding,
				Line: int(stmt.StartPoint().Row) + 1,
			}
			if right != nil && right.Type() == "call" {
				if recv := right.ChildByFieldName("receiver"); recv != nil && recv.Type() == "constant" {
					b.Kind = model.AliasBinding
					b.AliasTarget = NodeText(recv, source)
				}
			}
			decl.Bindings = append(decl.Bindings, b)
		}
	}

	return decl, body
}

// rubyBodyStatement finds the body_statement child of a class/module node.
func rubyBodyStatement(node *sitter.Node) *sitter.Node {
	if b := node.ChildByFieldName("body"); b != nil {
		return b
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "body_statement" {
			return child
		}
	}
	return nil
}

// rubyParseConfig reads a PODHERIT_CONFIG hash literal.
func rubyParseConfig(hash *sitter.Node, source []byte) *model.DeclaredConfig {
	cfg := &model.DeclaredConfig{}
	for i := 0; i < int(hash.NamedChildCount()); i++ {
		pair := hash.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := rubyHashKey(pair.ChildByFieldName("key"), source)
		value := pair.ChildByFieldName("value")
		if key == "" || value == nil {
			continue
		}
		switch key {
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
			if value.Type() != "hash" {
				continue
			}
			cm := make(map[string]string)
			for j := 0; j < int(value.NamedChildCount()); j++ {
				p := value.NamedChild(j)
				if p.Type() != "pair" {
					continue
				}
				k := rubyHashKey(p.ChildByFieldName("key"), source)
				v := p.ChildByFieldName("value")
				if k == "" || v == nil {
					continue
				}
				switch v.Type() {
				case "string":
					cm[k] = rubyStringContent(v, source)
				case "constant", "scope_resolution":
					cm[k] = NodeText(v, source)
				}
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

func rubyHashKey(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "simple_symbol":
		return strings.TrimPrefix(NodeText(node, source), ":")
	case "hash_key_symbol":
		return NodeText(node, source)
	case "string":
		return rubyStringContent(node, source)
	case "constant":
		return NodeText(node, source)
	}
	return ""
}

func rubyStringContent(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "string_content" {
			return NodeText(child, source)
		}
	}
	return strings.Trim(NodeText(node, source), `"'`)
}
