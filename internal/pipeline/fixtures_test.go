package pipeline_test

import (
	"time"

	"codegraph/internal/store"
)

func repoFixture() store.Repository {
	return store.Repository{RepoID: "r1", Name: "demo"}
}

func snapshotFixture() store.Snapshot {
	return store.Snapshot{SnapshotID: "r1:main", RepoID: "r1", Branch: "main", CreatedAt: time.Unix(0, 0).UTC()}
}

func fileMetaFixture(path, hash string) store.FileMetadata {
	return store.FileMetadata{RepoID: "r1", SnapshotID: "r1:main", FilePath: path, ContentHash: hash}
}
