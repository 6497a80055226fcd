// Package index builds versioned corpus snapshots from source pages and
// publishes them atomically so queries never observe a half-built index.
package index

import "path/filepath"

// Layout maps one data directory to the on-disk index artifacts.
type Layout struct {
	DataDir string
}

// LexicalPath is the Bleve index directory.
func (l Layout) LexicalPath() string {
	return filepath.Join(l.DataDir, "lexical.bleve")
}

// VectorPath is the HNSW graph file (with its .meta sidecar).
func (l Layout) VectorPath() string {
	return filepath.Join(l.DataDir, "vectors.hnsw")
}

// MetadataPath is the SQLite chunk metadata database.
func (l Layout) MetadataPath() string {
	return filepath.Join(l.DataDir, "metadata.db")
}

// LockPath is the build lock file.
func (l Layout) LockPath() string {
	return filepath.Join(l.DataDir, ".build.lock")
}
