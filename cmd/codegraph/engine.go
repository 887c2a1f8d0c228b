package main

import (
	"fmt"

	"codegraph/internal/indexer"
	"codegraph/internal/lexical"
	"codegraph/internal/parser"
	"codegraph/internal/retriever"
	"codegraph/internal/server"
	"codegraph/internal/store"
	"codegraph/internal/store/embedded"
	serversqlite "codegraph/internal/store/server"
)

// engine bundles the core components a CLI command drives, wired the same
// way internal/server wires them for the HTTP surface (spec.md §6: both
// front ends are thin adapters over the same Store/Orchestrator/Retriever).
type engine struct {
	store     store.Store
	registry  *parser.Registry
	orch      *indexer.Orchestrator
	retriever *retriever.Retriever
	srv       *server.Server
}

func openEngine() (*engine, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}

	registry := parser.DefaultRegistry()
	orch := indexer.NewOrchestrator(cfg.Pipeline.MaxParallelFiles)

	lex := lexical.New(repoID, snapshotID, lexical.StoreProvider{Store: st}, st)
	orch.Register(lex)

	retr := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategyLexical: lex,
	})

	srv := server.New(cfg, st, registry, orch, retr)

	return &engine{store: st, registry: registry, orch: orch, retriever: retr, srv: srv}, nil
}

// openStore picks the adapter config.StoreConfig.Adapter names (spec.md
// §4.D: embedded for CLI/dev, server for the 12+-index production shape).
func openStore() (store.Store, error) {
	switch cfg.Store.Adapter {
	case "server":
		return serversqlite.Open(cfg.Store.DSN)
	case "embedded", "":
		return embedded.Open(cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown store adapter %q", cfg.Store.Adapter)
	}
}
