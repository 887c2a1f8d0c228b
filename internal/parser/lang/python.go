package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codegraph/internal/parser"
)

// Python implements parser.LanguageHooks for Python source.
type Python struct{}

func NewPython() *Python { return &Python{} }

func (Python) Language() string            { return "py" }
func (Python) Grammar() *sitter.Language   { return python.GetLanguage() }
func (Python) FunctionNodeTypes() []string { return []string{"function_definition"} }
func (Python) MethodNodeTypes() []string   { return []string{"function_definition"} }
func (Python) ClassNodeTypes() []string    { return []string{"class_definition"} }
func (Python) ImportNodeTypes() []string   { return []string{"import_statement", "import_from_statement"} }
func (Python) CallNodeTypes() []string     { return []string{"call"} }

func (Python) NameOf(n *sitter.Node, src []byte) string {
	return text(n.ChildByFieldName("name"), src)
}

func (p Python) SignatureOf(n *sitter.Node, src []byte) string {
	name := p.NameOf(n, src)
	switch n.Type() {
	case "function_definition":
		sig := "def " + name
		if params := n.ChildByFieldName("parameters"); params != nil {
			sig += text(params, src)
		}
		return sig
	case "class_definition":
		sig := "class " + name
		if super := n.ChildByFieldName("superclasses"); super != nil {
			sig += text(super, src)
		}
		return sig
	default:
		return name
	}
}

func (Python) VisibilityOf(n *sitter.Node, src []byte, name string) parser.Visibility {
	if strings.HasPrefix(name, "_") {
		return parser.VisibilityPrivate
	}
	return parser.VisibilityPublic
}

// ReceiverType reports the enclosing class's name for a method, derived by
// the caller's scope rather than syntax (Python methods carry no explicit
// receiver node); Base determines "is method" from the scope stack, so this
// always returns "" and lets Base.isInsideClass() drive classification.
func (Python) ReceiverType(n *sitter.Node, src []byte) string { return "" }

func (Python) ImportTarget(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
			return text(c, src)
		}
	}
	return ""
}

func (Python) CallTarget(n *sitter.Node, src []byte) string {
	return text(n.ChildByFieldName("function"), src)
}
