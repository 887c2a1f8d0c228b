package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"codegraph/internal/cgerr"
	"codegraph/internal/indexer"
	"codegraph/internal/logging"
	"codegraph/internal/pipeline"
	"codegraph/internal/store"
)

// fileInput is one source file in an /index/repo or /index/incremental
// request body.
type fileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type indexRepoRequest struct {
	RepoID     string      `json:"repo_id"`
	SnapshotID string      `json:"snapshot_id"`
	Branch     string      `json:"branch"`
	CommitHash string      `json:"commit_hash"`
	Files      []fileInput `json:"files"`
}

type indexRepoResponse struct {
	SnapshotID string               `json:"snapshot_id"`
	Stages     []string             `json:"stages"`
	ReplayRef  string               `json:"replay_ref"`
	Failed     bool                 `json:"failed"`
	Commit     indexer.CommitResult `json:"commit"`
}

// handleIndexRepo runs a full index: parse + chunk + cross-file resolve +
// persist (internal/pipeline), then feeds every file as an "added" change
// through the index-plugin commit protocol (internal/indexer) so lexical
// (and any other registered) indexes pick up the new snapshot.
func (s *Server) handleIndexRepo(w http.ResponseWriter, r *http.Request) {
	var req indexRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, http.StatusBadRequest, "handleIndexRepo", err)
		return
	}
	if req.RepoID == "" || req.SnapshotID == "" {
		writeFailed(w, http.StatusBadRequest, "handleIndexRepo", cgerr.New(cgerr.KindConfig, "handleIndexRepo", "repo_id and snapshot_id are required"))
		return
	}

	ctx := r.Context()
	if err := s.store.SaveRepository(ctx, store.Repository{RepoID: req.RepoID}); err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleIndexRepo", err)
		return
	}
	if err := s.store.SaveSnapshot(ctx, store.Snapshot{
		SnapshotID: req.SnapshotID,
		RepoID:     req.RepoID,
		CommitHash: req.CommitHash,
		Branch:     req.Branch,
		CreatedAt:  time.Now(),
	}); err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleIndexRepo", err)
		return
	}

	run := &pipeline.RunState{
		RepoID:      req.RepoID,
		SnapshotID:  req.SnapshotID,
		ParseErrors: make(map[string]error),
	}
	for _, f := range req.Files {
		run.Files = append(run.Files, pipeline.FileSource{Path: f.Path, Content: []byte(f.Content)})
	}

	orchestrator := pipeline.NewDefaultOrchestrator(s.registry, s.store, s.cfg.Pipeline.MaxParallelFiles)
	result, err := orchestrator.Run(ctx, run)
	if err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleIndexRepo", err)
		return
	}

	commit, err := s.commitFullSnapshot(ctx, req.RepoID, req.SnapshotID, req.Files)
	if err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleIndexRepo", err)
		return
	}

	resp := indexRepoResponse{SnapshotID: req.SnapshotID, ReplayRef: result.ReplayRef, Failed: result.Failed, Commit: commit}
	for _, st := range result.Stages {
		resp.Stages = append(resp.Stages, st.Name)
	}
	if result.Failed || len(commit.Failed) > 0 {
		writeDegraded(w, resp, commitErrors(commit))
		return
	}
	writeOK(w, resp)
}

type indexIncrementalRequest struct {
	RepoID     string   `json:"repo_id"`
	SnapshotID string   `json:"snapshot_id"`
	AgentID    string   `json:"agent_id"`
	Changes    []change `json:"changes"`
}

type change struct {
	Kind    string `json:"kind"` // "added", "modified", "removed"
	Path    string `json:"path"`
	Content string `json:"content"`
}

// handleIndexIncremental applies a delta file by file: a removed file's
// chunks are soft-deleted, and each added or modified file runs through
// the default pipeline on its own. It then runs the session protocol
// (begin_session / add_change* / commit — spec.md §4.M) over all changes.
func (s *Server) handleIndexIncremental(w http.ResponseWriter, r *http.Request) {
	var req indexIncrementalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(w, http.StatusBadRequest, "handleIndexIncremental", err)
		return
	}
	if req.RepoID == "" || req.SnapshotID == "" {
		writeFailed(w, http.StatusBadRequest, "handleIndexIncremental", cgerr.New(cgerr.KindConfig, "handleIndexIncremental", "repo_id and snapshot_id are required"))
		return
	}

	ctx := r.Context()
	for _, c := range req.Changes {
		if c.Kind == "removed" {
			if err := s.store.SoftDeleteFileChunks(ctx, req.RepoID, req.SnapshotID, c.Path); err != nil {
				writeFailed(w, http.StatusInternalServerError, "handleIndexIncremental", err)
				return
			}
			continue
		}
		run := &pipeline.RunState{
			RepoID:      req.RepoID,
			SnapshotID:  req.SnapshotID,
			ParseErrors: make(map[string]error),
			Files:       []pipeline.FileSource{{Path: c.Path, Content: []byte(c.Content)}},
		}
		orchestrator := pipeline.NewDefaultOrchestrator(s.registry, s.store, 1)
		if _, err := orchestrator.Run(ctx, run); err != nil {
			writeFailed(w, http.StatusInternalServerError, "handleIndexIncremental", err)
			return
		}
	}

	session := s.orch.BeginSession(req.AgentID, req.RepoID, req.SnapshotID)
	for _, c := range req.Changes {
		session.AddChange(indexer.ChangeOp{Kind: indexer.ChangeKind(c.Kind), FilePath: c.Path})
	}
	commit, err := s.orch.Commit(ctx, session.SessionID)
	s.orch.EndSession(session.SessionID)
	if err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleIndexIncremental", err)
		return
	}

	if len(commit.Failed) > 0 {
		writeDegraded(w, commit, commitErrors(commit))
		return
	}
	writeOK(w, commit)
}

// handleDeleteRepo soft-deletes every chunk under every file the snapshot
// currently has persisted. There is no single-call "delete repo" store
// operation (chunks are never hard-deleted — spec.md §4.D), so this walks
// the snapshot's chunks to discover file paths and deletes them one at a
// time, the same way SoftDeleteFileChunks is used everywhere else.
func (s *Server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	repoID := r.URL.Query().Get("repo_id")
	snapshotID := r.URL.Query().Get("snapshot_id")
	if repoID == "" || snapshotID == "" {
		writeFailed(w, http.StatusBadRequest, "handleDeleteRepo", cgerr.New(cgerr.KindConfig, "handleDeleteRepo", "repo_id and snapshot_id query params are required"))
		return
	}

	ctx := r.Context()
	chunks, err := s.store.GetChunks(ctx, repoID, snapshotID)
	if err != nil {
		writeFailed(w, http.StatusInternalServerError, "handleDeleteRepo", err)
		return
	}

	seen := make(map[string]bool)
	deleted := 0
	for _, c := range chunks {
		if c.FilePath == "" || seen[c.FilePath] {
			continue
		}
		seen[c.FilePath] = true
		if err := s.store.SoftDeleteFileChunks(ctx, repoID, snapshotID, c.FilePath); err != nil {
			writeFailed(w, http.StatusInternalServerError, "handleDeleteRepo", err)
			return
		}
		deleted++
	}
	logging.ServerDebug("server: deleted %d files for %s/%s", deleted, repoID, snapshotID)
	writeOK(w, map[string]any{"repo_id": repoID, "snapshot_id": snapshotID, "files_deleted": deleted})
}

// handleIndexStatus reports the Multi-Index Orchestrator's per-plugin
// watermark (spec.md §4.M: "global queries may optionally wait until all
// watermarks >= required txn").
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("repo_id")
	writeOK(w, map[string]any{
		"repo_id":       repoID,
		"watermarks":    s.orch.Watermarks(),
		"min_watermark": s.orch.MinWatermark(),
	})
}

// commitFullSnapshot drives begin_session/add_change/commit for a full
// index: every file in the request is an "added" observation.
func (s *Server) commitFullSnapshot(ctx context.Context, repoID, snapshotID string, files []fileInput) (indexer.CommitResult, error) {
	session := s.orch.BeginSession("pipeline", repoID, snapshotID)
	for _, f := range files {
		session.AddChange(indexer.ChangeOp{Kind: indexer.Added, FilePath: f.Path})
	}
	commit, err := s.orch.Commit(ctx, session.SessionID)
	s.orch.EndSession(session.SessionID)
	return commit, err
}

func commitErrors(c indexer.CommitResult) []cgerr.Entry {
	out := make([]cgerr.Entry, 0, len(c.Failed))
	for _, f := range c.Failed {
		out = append(out, cgerr.Entry{Kind: cgerr.KindIndex, Where: f.IndexType, Message: f.Err.Error()})
	}
	return out
}
