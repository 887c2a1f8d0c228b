package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"codegraph/internal/parser"
)

// Rust implements parser.LanguageHooks for Rust source.
type Rust struct{}

func NewRust() *Rust { return &Rust{} }

func (Rust) Language() string            { return "rs" }
func (Rust) Grammar() *sitter.Language   { return rust.GetLanguage() }
func (Rust) FunctionNodeTypes() []string { return []string{"function_item"} }
func (Rust) MethodNodeTypes() []string   { return []string{"function_item"} }
func (Rust) ClassNodeTypes() []string    { return []string{"struct_item", "trait_item", "impl_item", "mod_item"} }
func (Rust) ImportNodeTypes() []string   { return []string{"use_declaration"} }
func (Rust) CallNodeTypes() []string     { return []string{"call_expression"} }

func (Rust) NameOf(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return text(name, src)
	}
	// impl_item has no "name" field; use the type it implements for.
	if n.Type() == "impl_item" {
		if t := n.ChildByFieldName("type"); t != nil {
			return text(t, src)
		}
	}
	return ""
}

func (r Rust) SignatureOf(n *sitter.Node, src []byte) string {
	name := r.NameOf(n, src)
	switch n.Type() {
	case "function_item":
		sig := "fn " + name
		if p := n.ChildByFieldName("parameters"); p != nil {
			sig += text(p, src)
		}
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			sig += " -> " + text(ret, src)
		}
		return sig
	case "struct_item":
		return "struct " + name
	case "trait_item":
		return "trait " + name
	case "impl_item":
		return "impl " + name
	case "mod_item":
		return "mod " + name
	default:
		return name
	}
}

func (Rust) VisibilityOf(n *sitter.Node, src []byte, name string) parser.Visibility {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "visibility_modifier" && strings.HasPrefix(text(c, src), "pub") {
			return parser.VisibilityPublic
		}
	}
	return parser.VisibilityPrivate
}

func (Rust) ReceiverType(n *sitter.Node, src []byte) string {
	// function_item inside an impl_item is a method; Base.isInsideClass()
	// (driven by the scope stack pushed for impl_item) determines this —
	// Rust carries no explicit receiver node the way Go does.
	return ""
}

func (Rust) ImportTarget(n *sitter.Node, src []byte) string {
	if arg := n.ChildByFieldName("argument"); arg != nil {
		return text(arg, src)
	}
	return strings.TrimSuffix(strings.TrimPrefix(text(n, src), "use "), ";")
}

func (Rust) CallTarget(n *sitter.Node, src []byte) string {
	return text(n.ChildByFieldName("function"), src)
}
