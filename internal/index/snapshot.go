package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/polisearch/polisearch/internal/embed"
	polierrors "github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/store"
)

// Snapshot is one immutable corpus version: every query runs against
// exactly one snapshot, and rebuilds publish a new one instead of
// mutating it.
type Snapshot struct {
	Version  int
	Lexical  store.LexicalIndex
	Vector   store.VectorStore
	Metadata store.MetadataStore
}

// Close releases all backing stores. Called on the replaced snapshot
// after a publish, never on the active one.
func (s *Snapshot) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{s.Lexical, s.Vector, s.Metadata} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Manager publishes snapshots atomically. In-flight queries keep the
// pointer they loaded; Publish returns the replaced snapshot so the
// caller can close it once its readers drain.
type Manager struct {
	current atomic.Pointer[Snapshot]
}

// NewManager returns a manager with no active snapshot.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the active snapshot, or nil before the first publish.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Publish swaps in a new snapshot and returns the previous one.
func (m *Manager) Publish(s *Snapshot) *Snapshot {
	return m.current.Swap(s)
}

const currentVersionFile = "CURRENT"

// CurrentVersion reads the active version number from the data directory.
// Returns 0 when no index has been built yet.
func CurrentVersion(dataDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, currentVersionFile))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read version marker: %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || v < 0 {
		return 0, polierrors.New(polierrors.ErrCodeCorruptIndex,
			fmt.Sprintf("invalid version marker %q", strings.TrimSpace(string(data))), err)
	}
	return v, nil
}

// writeCurrentVersion atomically updates the version marker.
func writeCurrentVersion(dataDir string, version int) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, currentVersionFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strconv.Itoa(version)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write version marker: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish version marker: %w", err)
	}
	return nil
}

// versioned returns the layout of one version's artifacts.
func (l Layout) versioned(version int) Layout {
	return Layout{DataDir: filepath.Join(l.DataDir, fmt.Sprintf("v%d", version))}
}

// OpenOptions configures opening an existing snapshot.
type OpenOptions struct {
	// Backend selects the vector store: "hnsw" (default) or "pgvector".
	Backend string

	// PostgresURL and Table apply to the pgvector backend.
	PostgresURL string
	Table       string

	// Embedder, when set, is checked against the dimension the index was
	// built with.
	Embedder embed.Embedder

	Logger *slog.Logger
}

// Open loads the current snapshot from the data directory.
//
// A vector backend that fails to open does not fail the snapshot: it is
// replaced by a stub whose searches report the capability unavailable, so
// queries degrade to lexical-only.
func Open(ctx context.Context, layout Layout, opts OpenOptions) (*Snapshot, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	version, err := CurrentVersion(layout.DataDir)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		e := polierrors.New(polierrors.ErrCodeFileNotFound,
			fmt.Sprintf("no index found in %s", layout.DataDir), nil)
		e.Suggestion = "run 'polisearch index' first"
		return nil, e
	}
	vl := layout.versioned(version)

	metadata, err := store.NewSQLiteMetadataStore(vl.MetadataPath())
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeCorruptIndex,
			"failed to open chunk metadata", err)
	}

	dims, err := indexDimension(ctx, metadata)
	if err != nil {
		metadata.Close()
		return nil, err
	}
	if dims == 0 && opts.Backend != "pgvector" {
		// Snapshots missing the stored dimension state still carry it
		// in the HNSW sidecar.
		if d, serr := store.ReadHNSWStoreDimensions(vl.VectorPath()); serr == nil {
			dims = d
		}
	}
	if opts.Embedder != nil && opts.Embedder.Dimensions() > 0 && dims > 0 &&
		opts.Embedder.Dimensions() != dims {
		metadata.Close()
		return nil, store.ErrDimensionMismatch{Expected: dims, Got: opts.Embedder.Dimensions()}
	}

	lexical, err := store.NewBleveLexicalIndex(vl.LexicalPath())
	if err != nil {
		metadata.Close()
		return nil, polierrors.New(polierrors.ErrCodeCorruptIndex,
			"failed to open lexical index", err)
	}

	vector := openVectorStore(ctx, vl, dims, opts, logger)

	return &Snapshot{
		Version:  version,
		Lexical:  lexical,
		Vector:   vector,
		Metadata: metadata,
	}, nil
}

func indexDimension(ctx context.Context, metadata store.MetadataStore) (int, error) {
	raw, err := metadata.GetState(ctx, store.StateKeyIndexDimension)
	if err != nil {
		return 0, polierrors.New(polierrors.ErrCodeCorruptIndex,
			"failed to read index dimension", err)
	}
	if raw == "" {
		return 0, nil
	}
	dims, err := strconv.Atoi(raw)
	if err != nil || dims <= 0 {
		return 0, polierrors.New(polierrors.ErrCodeCorruptIndex,
			fmt.Sprintf("invalid stored index dimension %q", raw), err)
	}
	return dims, nil
}

func openVectorStore(ctx context.Context, vl Layout, dims int, opts OpenOptions, logger *slog.Logger) store.VectorStore {
	open := func() (store.VectorStore, error) {
		if opts.Backend == "pgvector" {
			return store.NewPGVectorStore(ctx, opts.PostgresURL, opts.Table,
				store.DefaultVectorStoreConfig(dims))
		}
		hs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(dims))
		if err != nil {
			return nil, err
		}
		if err := hs.Load(vl.VectorPath()); err != nil {
			hs.Close()
			return nil, err
		}
		return hs, nil
	}

	vs, err := open()
	if err != nil {
		logger.Warn("vector_store_unavailable",
			slog.String("backend", opts.Backend),
			slog.String("error", err.Error()))
		return &unavailableVectorStore{cause: err}
	}
	return vs
}

// unavailableVectorStore stands in for a vector backend that could not be
// opened. Searches fail with a capability error, which the retriever
// treats as a degradation signal rather than a query failure.
type unavailableVectorStore struct {
	cause error
}

func (u *unavailableVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	return u.err()
}
func (u *unavailableVectorStore) Search(ctx context.Context, query []float32, k int) ([]*store.VectorResult, error) {
	return nil, u.err()
}
func (u *unavailableVectorStore) Delete(ctx context.Context, ids []string) error { return u.err() }
func (u *unavailableVectorStore) Contains(id string) bool                        { return false }
func (u *unavailableVectorStore) Count() int                                     { return 0 }
func (u *unavailableVectorStore) Save(path string) error                         { return u.err() }
func (u *unavailableVectorStore) Load(path string) error                         { return u.err() }
func (u *unavailableVectorStore) Close() error                                   { return nil }

func (u *unavailableVectorStore) err() error {
	return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
		"vector store unavailable", u.cause)
}

var _ store.VectorStore = (*unavailableVectorStore)(nil)
