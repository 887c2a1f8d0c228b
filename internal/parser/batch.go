package parser

import (
	"codegraph/internal/cgerr"
	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

// FileInput is one file handed to a batch parse.
type FileInput struct {
	Path    string
	Content []byte
}

// BatchResult is the outcome of parsing a batch of files. Docs holds every
// successfully parsed file's IR; Errors holds one entry per file that
// failed (or was unsupported) — parsing continues past failures.
type BatchResult struct {
	Docs   []ir.Document
	Errors map[string]error // path -> error
}

// ParseBatch parses every file in inputs, skipping files with no registered
// extractor and collecting per-file parse errors without aborting (4.B:
// "Failures on one file never abort the batch").
func ParseBatch(r *Registry, inputs []FileInput) BatchResult {
	result := BatchResult{Errors: make(map[string]error)}
	for _, in := range inputs {
		b, ok := r.ForFile(in.Path)
		if !ok {
			continue
		}
		doc, err := b.Extract(in.Path, in.Content)
		if err != nil {
			logging.ParserWarn("skipping %s: %v", in.Path, err)
			result.Errors[in.Path] = cgerr.Wrap(cgerr.KindParse, "parser.ParseBatch", "failed to parse "+in.Path, err)
			continue
		}
		result.Docs = append(result.Docs, doc)
	}
	return result
}
