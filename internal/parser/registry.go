package parser

import (
	"path/filepath"
	"strings"
	"sync"
)

// Registry maps a file extension (with leading dot) to a language tag and
// each language tag to its extractor.
// Registered once at startup; no switch on language appears in the core —
// new languages register an extractor under Registry instead.
type Registry struct {
	mu         sync.RWMutex
	byLanguage map[string]*Base
	byExt      map[string]string // ".go" -> "go"
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLanguage: make(map[string]*Base), byExt: make(map[string]string)}
}

// Register adds a language extractor, associating it with the given file
// extensions (leading dot required, e.g. ".py").
func (r *Registry) Register(hooks LanguageHooks, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := NewBase(hooks)
	r.byLanguage[hooks.Language()] = b
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = hooks.Language()
	}
}

// Close releases every registered extractor's tree-sitter parser.
func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.byLanguage {
		b.Close()
	}
}

// ForFile resolves the extractor for a file path by extension, or
// (nil, false) if no language is registered for it.
func (r *Registry) ForFile(path string) (*Base, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byExt[ext]
	if !ok {
		return nil, false
	}
	b, ok := r.byLanguage[lang]
	return b, ok
}

// Languages lists the registered language identifiers.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	return out
}
