package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/polisearch/polisearch/internal/chunk"
	"github.com/polisearch/polisearch/internal/embed"
	polierrors "github.com/polisearch/polisearch/internal/errors"
	"github.com/polisearch/polisearch/internal/extract"
	"github.com/polisearch/polisearch/internal/store"
)

// BuilderOptions configures a corpus build.
type BuilderOptions struct {
	ChunkTarget  int
	ChunkOverlap int

	// EmbedBatchSize bounds each embedding request (default 32).
	EmbedBatchSize int

	// Backend selects the vector store: "hnsw" (default) or "pgvector".
	Backend     string
	PostgresURL string
	Table       string

	Logger *slog.Logger
}

// BuildStats summarizes one completed build.
type BuildStats struct {
	Version  int
	Pages    int
	Chunks   int
	Vectors  int
	Duration time.Duration
}

// Builder turns source pages into a published corpus snapshot:
// chunk, embed, index both legs, persist metadata, bump the version.
type Builder struct {
	layout   Layout
	chunker  *chunk.Chunker
	embedder embed.Embedder
	opts     BuilderOptions
	logger   *slog.Logger
}

// NewBuilder creates a builder for the given data directory.
func NewBuilder(layout Layout, embedder embed.Embedder, opts BuilderOptions) (*Builder, error) {
	chunker, err := chunk.NewChunker(chunk.Options{
		TargetSize: opts.ChunkTarget,
		Overlap:    opts.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	if opts.EmbedBatchSize <= 0 {
		opts.EmbedBatchSize = embed.DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		layout:   layout,
		chunker:  chunker,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Build chunks and indexes the pages into a fresh version directory,
// publishes it as current, and returns the opened snapshot. The build
// lock serializes concurrent builds of the same data directory.
//
// Zero chunks out of a non-empty build is fatal: an empty index would
// silently answer every query with nothing.
func (b *Builder) Build(ctx context.Context, pages []extract.SourcePage) (*Snapshot, *BuildStats, error) {
	start := time.Now()

	lock := NewBuildLock(b.layout)
	if err := lock.Acquire(); err != nil {
		return nil, nil, err
	}
	defer func() { _ = lock.Release() }()

	chunks, err := b.chunker.ChunkPages(ctx, pages)
	if err != nil {
		return nil, nil, polierrors.New(polierrors.ErrCodeBuildFailed, "chunking failed", err)
	}
	if len(chunks) == 0 {
		return nil, nil, polierrors.EmptyCorpus(
			fmt.Sprintf("no chunks produced from %d pages", len(pages)))
	}

	b.logger.Info("build_chunked",
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(chunks)))

	vectors, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}
	dims := len(vectors[0])

	prevVersion, err := CurrentVersion(b.layout.DataDir)
	if err != nil {
		return nil, nil, err
	}
	version := prevVersion + 1
	vl := b.layout.versioned(version)

	// Versions older than the published one are pruned here, not right
	// after the marker swap, so readers holding the previous version
	// keep their files through one rebuild.
	b.pruneStaleVersions(prevVersion)

	snapshot, err := b.writeVersion(ctx, vl, version, pages, chunks, vectors, dims)
	if err != nil {
		os.RemoveAll(vl.DataDir)
		return nil, nil, err
	}

	if err := writeCurrentVersion(b.layout.DataDir, version); err != nil {
		snapshot.Close()
		os.RemoveAll(vl.DataDir)
		return nil, nil, polierrors.New(polierrors.ErrCodeBuildFailed,
			"failed to publish version marker", err)
	}

	stats := &BuildStats{
		Version:  version,
		Pages:    len(pages),
		Chunks:   len(chunks),
		Vectors:  len(vectors),
		Duration: time.Since(start),
	}
	b.logger.Info("build_complete",
		slog.Int("version", version),
		slog.Int("chunks", stats.Chunks),
		slog.Duration("duration", stats.Duration))

	return snapshot, stats, nil
}

// pruneStaleVersions removes version directories older than current.
func (b *Builder) pruneStaleVersions(current int) {
	entries, err := os.ReadDir(b.layout.DataDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "v") {
			continue
		}
		n, err := strconv.Atoi(e.Name()[1:])
		if err != nil || n >= current {
			continue
		}
		if err := os.RemoveAll(filepath.Join(b.layout.DataDir, e.Name())); err != nil {
			b.logger.Warn("stale_version_cleanup_failed",
				slog.Int("version", n),
				slog.String("error", err.Error()))
		}
	}
}

func (b *Builder) embedChunks(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for lo := 0; lo < len(chunks); lo += b.opts.EmbedBatchSize {
		hi := min(lo+b.opts.EmbedBatchSize, len(chunks))
		texts := make([]string, 0, hi-lo)
		for _, c := range chunks[lo:hi] {
			texts = append(texts, c.Text)
		}

		batch, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, polierrors.New(polierrors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("embedding batch %d-%d failed", lo, hi), err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (b *Builder) writeVersion(
	ctx context.Context,
	vl Layout,
	version int,
	pages []extract.SourcePage,
	chunks []chunk.Chunk,
	vectors [][]float32,
	dims int,
) (*Snapshot, error) {
	metadata, err := store.NewSQLiteMetadataStore(vl.MetadataPath())
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeBuildFailed, "failed to create metadata store", err)
	}

	lexical, err := store.NewBleveLexicalIndex(vl.LexicalPath())
	if err != nil {
		metadata.Close()
		return nil, polierrors.New(polierrors.ErrCodeBuildFailed, "failed to create lexical index", err)
	}

	vector, err := b.newVectorStore(ctx, dims)
	if err != nil {
		lexical.Close()
		metadata.Close()
		return nil, err
	}

	snapshot := &Snapshot{Version: version, Lexical: lexical, Vector: vector, Metadata: metadata}
	fail := func(msg string, err error) (*Snapshot, error) {
		snapshot.Close()
		return nil, polierrors.New(polierrors.ErrCodeBuildFailed, msg, err)
	}

	if err := metadata.SaveChunks(ctx, chunks); err != nil {
		return fail("failed to persist chunk metadata", err)
	}
	if err := lexical.Index(ctx, chunks); err != nil {
		return fail("failed to build lexical index", err)
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := vector.Add(ctx, ids, vectors); err != nil {
		return fail("failed to build vector index", err)
	}
	if err := vector.Save(vl.VectorPath()); err != nil {
		return fail("failed to persist vector index", err)
	}

	state := map[string]string{
		store.StateKeyIndexDimension: strconv.Itoa(dims),
		store.StateKeyIndexModel:     b.embedder.ModelName(),
		store.StateKeyIndexVersion:   strconv.Itoa(version),
		store.StateKeyIndexBuiltAt:   time.Now().UTC().Format(time.RFC3339),
		store.StateKeySourceDigest:   sourceDigest(pages),
	}
	for key, value := range state {
		if err := metadata.SetState(ctx, key, value); err != nil {
			return fail("failed to persist corpus state", err)
		}
	}

	return snapshot, nil
}

func (b *Builder) newVectorStore(ctx context.Context, dims int) (store.VectorStore, error) {
	if b.opts.Backend == "pgvector" {
		vs, err := store.NewPGVectorStore(ctx, b.opts.PostgresURL, b.opts.Table,
			store.DefaultVectorStoreConfig(dims))
		if err != nil {
			return nil, polierrors.New(polierrors.ErrCodeBuildFailed,
				"failed to connect pgvector backend", err)
		}
		// Full rebuild: stale rows from prior corpus versions must go.
		if err := vs.DeleteAll(ctx); err != nil {
			vs.Close()
			return nil, polierrors.New(polierrors.ErrCodeBuildFailed,
				"failed to clear pgvector table", err)
		}
		return vs, nil
	}

	vs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(dims))
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeBuildFailed,
			"failed to create vector store", err)
	}
	return vs, nil
}

// sourceDigest fingerprints the source pages so status can report whether
// the index is stale relative to its input.
func sourceDigest(pages []extract.SourcePage) string {
	h := sha256.New()
	for _, p := range pages {
		fmt.Fprintf(h, "%s\x00%d\x00%s\x00", p.Source, p.Page, p.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
