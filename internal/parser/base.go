package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"codegraph/internal/cgerr"
	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// Base is the single abstract extractor every language plugs into. It owns
// the scope stack, FQN builder, and generic tree-sitter traversal; language
// differences are confined to the LanguageHooks implementation passed in at
// construction.
type Base struct {
	hooks  LanguageHooks
	parser *sitter.Parser
	mu     sync.Mutex // tree-sitter parsers are not safe for concurrent use
}

// NewBase constructs a Base extractor bound to one language's hooks.
func NewBase(hooks LanguageHooks) *Base {
	p := sitter.NewParser()
	p.SetLanguage(hooks.Grammar())
	return &Base{hooks: hooks, parser: p}
}

// Close releases the underlying tree-sitter parser.
func (b *Base) Close() { b.parser.Close() }

// Language returns the hooks' language identifier.
func (b *Base) Language() string { return b.hooks.Language() }

// scope tracks the FQN prefix stack while walking a file.
type scope struct {
	parts []string
}

func (s *scope) push(name string) { s.parts = append(s.parts, name) }
func (s *scope) pop()             { s.parts = s.parts[:len(s.parts)-1] }
func (s *scope) fqn(name string) string {
	if len(s.parts) == 0 {
		return name
	}
	return strings.Join(s.parts, ".") + "." + name
}
func (s *scope) isInsideClass() bool { return len(s.parts) > 0 }

// Extract parses content and returns an ir.Document. A parse failure is
// returned as a *cgerr.Error with KindParse; callers (internal/pipeline)
// collect it and skip the file rather than aborting the batch.
func (b *Base) Extract(path string, content []byte) (ir.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tree, err := b.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return ir.Document{}, cgerr.Wrap(cgerr.KindParse, "parser.Base.Extract", "tree-sitter parse failed for "+path, err)
	}
	defer tree.Close()

	logging.ParserDebug("parsed %s (%s, %d bytes)", path, b.hooks.Language(), len(content))

	doc := ir.Document{FilePath: path, Language: b.hooks.Language()}
	sc := &scope{}
	b.traverseAndExtract(tree.RootNode(), path, content, sc, &doc, "")
	return doc, nil
}

func contains(set []string, t string) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// traverseAndExtract recurses over the tree, emitting CodeElement-equivalent
// IRNodes for classes, functions/methods, imports, and calls, and CONTAINS/
// CALLS/IMPORTS edges for each. parentID is the NodeID of the innermost
// enclosing class/function, "" at file scope.
func (b *Base) traverseAndExtract(n *sitter.Node, path string, src []byte, sc *scope, doc *ir.Document, parentID string) {
	t := n.Type()

	switch {
	case contains(b.hooks.ClassNodeTypes(), t):
		node := b.extractClassBase(n, path, src, sc)
		doc.Nodes = append(doc.Nodes, node)
		if parentID != "" {
			doc.Edges = append(doc.Edges, ir.IREdge{SourceID: parentID, TargetID: node.NodeID, Kind: ir.EdgeContains})
		}
		if name := b.hooks.NameOf(n, src); name != "" {
			sc.push(name)
			defer sc.pop()
		}
		parentID = node.NodeID

	case contains(b.hooks.MethodNodeTypes(), t) || contains(b.hooks.FunctionNodeTypes(), t):
		isMethod := contains(b.hooks.MethodNodeTypes(), t) && (sc.isInsideClass() || b.hooks.ReceiverType(n, src) != "")
		node := b.extractFunctionBase(n, path, src, sc, isMethod)
		doc.Nodes = append(doc.Nodes, node)
		if parentID != "" {
			doc.Edges = append(doc.Edges, ir.IREdge{SourceID: parentID, TargetID: node.NodeID, Kind: ir.EdgeContains})
		}
		parentID = node.NodeID

	case contains(b.hooks.ImportNodeTypes(), t):
		node, edge := b.extractImportBase(n, path, src)
		doc.Nodes = append(doc.Nodes, node)
		doc.Edges = append(doc.Edges, edge)

	case contains(b.hooks.CallNodeTypes(), t):
		if parentID != "" {
			target := b.hooks.CallTarget(n, src)
			if target != "" {
				doc.Edges = append(doc.Edges, ir.IREdge{
					SourceID: parentID,
					TargetID: ir.ExternalSentinel(b.hooks.Language(), target),
					Kind:     ir.EdgeCalls,
					Attrs:    map[string]string{"line": fmt.Sprintf("%d", n.StartPoint().Row)},
				})
			}
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		b.traverseAndExtract(n.Child(i), path, src, sc, doc, parentID)
	}
}

func spanOf(n *sitter.Node) ir.Span {
	sp := n.StartPoint()
	ep := n.EndPoint()
	return ir.Span{
		Start: ir.Position{Line: int(sp.Row), Column: int(sp.Column)},
		End:   ir.Position{Line: int(ep.Row), Column: int(ep.Column)},
	}
}

func (b *Base) extractClassBase(n *sitter.Node, path string, src []byte, sc *scope) ir.IRNode {
	name := b.hooks.NameOf(n, src)
	fqn := sc.fqn(name)
	span := spanOf(n)
	vis := b.hooks.VisibilityOf(n, src, name)
	return ir.IRNode{
		NodeID:     ir.StableNodeID("", b.hooks.Language(), ir.KindClass, fqn, span),
		Kind:       ir.KindClass,
		FQN:        fqn,
		Name:       name,
		Language:   b.hooks.Language(),
		FilePath:   path,
		Span:       span,
		Signature:  b.hooks.SignatureOf(n, src),
		Visibility: string(vis),
	}
}

func (b *Base) extractFunctionBase(n *sitter.Node, path string, src []byte, sc *scope, isMethod bool) ir.IRNode {
	name := b.hooks.NameOf(n, src)
	fqn := sc.fqn(name)
	span := spanOf(n)
	kind := ir.KindFunction
	attrs := map[string]string{}
	if isMethod {
		kind = ir.KindMethod
		if recv := b.hooks.ReceiverType(n, src); recv != "" {
			attrs["receiver_type"] = recv
		}
	}
	vis := b.hooks.VisibilityOf(n, src, name)
	return ir.IRNode{
		NodeID:     ir.StableNodeID("", b.hooks.Language(), kind, fqn, span),
		Kind:       kind,
		FQN:        fqn,
		Name:       name,
		Language:   b.hooks.Language(),
		FilePath:   path,
		Span:       span,
		Signature:  b.hooks.SignatureOf(n, src),
		Visibility: string(vis),
		Attrs:      attrs,
	}
}

func (b *Base) extractImportBase(n *sitter.Node, path string, src []byte) (ir.IRNode, ir.IREdge) {
	target := b.hooks.ImportTarget(n, src)
	span := spanOf(n)
	node := ir.IRNode{
		NodeID:   ir.StableNodeID("", b.hooks.Language(), ir.KindImport, path+"#"+target, span),
		Kind:     ir.KindImport,
		FQN:      target,
		Name:     target,
		Language: b.hooks.Language(),
		FilePath: path,
		Span:     span,
	}
	edge := ir.IREdge{
		SourceID: node.NodeID,
		TargetID: ir.ExternalSentinel(b.hooks.Language(), target),
		Kind:     ir.EdgeImports,
	}
	return node, edge
}
