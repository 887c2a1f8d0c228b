// Package parser implements the per-language AST -> IR front-ends behind one
// abstract BaseExtractor. Languages only declare their node-type sets and
// supply the name, signature, visibility, receiver, import and call-target
// hooks; all scope
// tracking, FQN building, and span extraction is shared.
package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageHooks is the per-language contract a tree-sitter grammar plugs
// into Base. A new language registers an implementation and a grammar; the
// core traversal in Base never switches on language.
type LanguageHooks interface {
	// Language is the short lowercase identifier used in node FQNs/IDs.
	Language() string

	// Grammar returns the tree-sitter language to parse with.
	Grammar() *sitter.Language

	// FunctionNodeTypes lists the tree-sitter node types that denote a
	// free function declaration.
	FunctionNodeTypes() []string

	// MethodNodeTypes lists node types for a method (function bound to a
	// receiver/class). May overlap with FunctionNodeTypes for languages
	// that don't distinguish syntactically (e.g. Python).
	MethodNodeTypes() []string

	// ClassNodeTypes lists node types that introduce a class/struct/interface
	// scope.
	ClassNodeTypes() []string

	// ImportNodeTypes lists node types that denote an import/use statement.
	ImportNodeTypes() []string

	// CallNodeTypes lists node types that denote a call expression.
	CallNodeTypes() []string

	// NameOf extracts the declared name from a declaration node, or ""
	// if the node doesn't carry one directly (anonymous function, etc).
	NameOf(n *sitter.Node, src []byte) string

	// SignatureOf builds the one-line declaration signature for a node.
	SignatureOf(n *sitter.Node, src []byte) string

	// VisibilityOf classifies a declaration's visibility from its name
	// and/or modifiers, per the language's convention (capitalization for
	// Go, leading underscore for Python, `pub` for Rust, `export` for TS).
	VisibilityOf(n *sitter.Node, src []byte, name string) Visibility

	// ReceiverType returns the receiver/owner type name for a method node,
	// or "" for a free function.
	ReceiverType(n *sitter.Node, src []byte) string

	// ImportTarget extracts the imported module/package path from an
	// import node.
	ImportTarget(n *sitter.Node, src []byte) string

	// CallTarget extracts the (unresolved) callee name from a call node.
	CallTarget(n *sitter.Node, src []byte) string
}

// Visibility is the language-neutral visibility classification a hook
// derives from naming convention or modifier keywords.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)
