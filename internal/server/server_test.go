package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codegraph/internal/config"
	"codegraph/internal/indexer"
	"codegraph/internal/lexical"
	"codegraph/internal/parser"
	"codegraph/internal/retriever"
	"codegraph/internal/server"
	"codegraph/internal/store/embedded"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	st, err := embedded.Open(":memory:")
	if err != nil {
		t.Fatalf("embedded.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	orch := indexer.NewOrchestrator(2)
	idx := lexical.New("r1", "s1", lexical.StoreProvider{Store: st}, st)
	orch.Register(idx)

	retr := retriever.New(map[retriever.Strategy]retriever.Adapter{
		retriever.StrategyLexical: idx,
	})

	cfg := config.DefaultConfig()
	return server.New(cfg, st, parser.DefaultRegistry(), orch, retr)
}

func TestIndexRepoThenSearchRoundTrips(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := strings.NewReader(`{
		"repo_id": "r1",
		"snapshot_id": "s1",
		"branch": "main",
		"commit_hash": "abc123",
		"files": [{"path": "main.go", "content": "package main\n\nfunc greet() string {\n\treturn \"hello\"\n}\n"}]
	}`)
	resp, err := http.Post(ts.URL+"/index/repo", "application/json", body)
	if err != nil {
		t.Fatalf("POST /index/repo: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope["status"] != "ok" && envelope["status"] != "degraded" {
		t.Fatalf("unexpected status: %v", envelope)
	}

	searchResp, err := http.Get(ts.URL + "/search?q=greet")
	if err != nil {
		t.Fatalf("GET /search: %v", err)
	}
	defer searchResp.Body.Close()
	if searchResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", searchResp.StatusCode)
	}
}

func TestSearchWithoutQueryParamIsRejected(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/search")
	if err != nil {
		t.Fatalf("GET /search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRFCEndpointsAreDocumentedButUnimplemented(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/rfc/execute", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /rfc/execute: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestIndexStatusReportsWatermarks(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index/status/r1")
	if err != nil {
		t.Fatalf("GET /index/status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
