// Package lang holds the per-language hook implementations that plug into
// parser.Base. Each file only declares node-type sets and overrides the
// hooks that differ — no file exceeds a few hundred lines, and none of them
// reimplement scope tracking or span extraction (that lives in parser.Base).
package lang

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"codegraph/internal/parser"
)

// Go implements parser.LanguageHooks for Go source.
type Go struct{}

func NewGo() *Go { return &Go{} }

func (Go) Language() string            { return "go" }
func (Go) Grammar() *sitter.Language    { return golang.GetLanguage() }
func (Go) FunctionNodeTypes() []string { return []string{"function_declaration"} }
func (Go) MethodNodeTypes() []string   { return []string{"method_declaration"} }
func (Go) ClassNodeTypes() []string    { return []string{"type_declaration"} }
func (Go) ImportNodeTypes() []string   { return []string{"import_spec"} }
func (Go) CallNodeTypes() []string     { return []string{"call_expression"} }

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func (Go) NameOf(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return text(name, src)
	}
	// type_declaration wraps a type_spec child carrying the name.
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if spec := n.NamedChild(i); spec.Type() == "type_spec" {
			return text(spec.ChildByFieldName("name"), src)
		}
	}
	return ""
}

func (g Go) SignatureOf(n *sitter.Node, src []byte) string {
	name := g.NameOf(n, src)
	switch n.Type() {
	case "function_declaration":
		sig := "func " + name
		if p := n.ChildByFieldName("parameters"); p != nil {
			sig += text(p, src)
		}
		if r := n.ChildByFieldName("result"); r != nil {
			sig += " " + text(r, src)
		}
		return sig
	case "method_declaration":
		recv := g.ReceiverType(n, src)
		sig := fmt.Sprintf("func %s %s", recv, name)
		if p := n.ChildByFieldName("parameters"); p != nil {
			sig += text(p, src)
		}
		if r := n.ChildByFieldName("result"); r != nil {
			sig += " " + text(r, src)
		}
		return sig
	default:
		return "type " + name
	}
}

func (Go) VisibilityOf(n *sitter.Node, src []byte, name string) parser.Visibility {
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		return parser.VisibilityPublic
	}
	return parser.VisibilityPrivate
}

func (Go) ReceiverType(n *sitter.Node, src []byte) string {
	if n.Type() != "method_declaration" {
		return ""
	}
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	return strings.TrimSpace(text(recv, src))
}

func (Go) ImportTarget(n *sitter.Node, src []byte) string {
	if p := n.ChildByFieldName("path"); p != nil {
		return strings.Trim(text(p, src), "\"")
	}
	return ""
}

func (Go) CallTarget(n *sitter.Node, src []byte) string {
	if f := n.ChildByFieldName("function"); f != nil {
		return text(f, src)
	}
	return ""
}
