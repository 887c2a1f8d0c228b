package parser

import "codegraph/internal/parser/lang"

// DefaultRegistry registers the language hooks shipped with this pack: Go,
// Python, TypeScript/JavaScript/TSX, and Rust. Java, Kotlin, C, and C++ are
// named in spec.md §4.B but have no grammar bundled in this pack — adding
// them is a matter of implementing LanguageHooks and registering extensions,
// never a core change.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(lang.NewGo(), ".go")
	r.Register(lang.NewPython(), ".py")
	r.Register(lang.NewTypeScript(), ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs")
	r.Register(lang.NewRust(), ".rs")
	return r
}
