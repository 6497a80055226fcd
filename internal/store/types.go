// Package store provides the persistence layer for indexed policy chunks:
// a lexical keyword index (Bleve), vector stores (embedded HNSW or external
// pgvector), and chunk metadata persistence (SQLite).
package store

import (
	"context"
	"fmt"

	"github.com/polisearch/polisearch/internal/chunk"
)

// State keys for the metadata store.
const (
	// StateKeyIndexDimension stores the embedding dimension used for the index
	StateKeyIndexDimension = "index_embedding_dimension"
	// StateKeyIndexModel stores the embedding model name used for the index
	StateKeyIndexModel = "index_embedding_model"
	// StateKeyIndexVersion stores the corpus snapshot version
	StateKeyIndexVersion = "index_version"
	// StateKeyIndexBuiltAt stores when the snapshot was built (RFC 3339)
	StateKeyIndexBuiltAt = "index_built_at"
	// StateKeySourceDigest stores the SHA-256 of the source pages file
	StateKeySourceDigest = "source_digest"
)

// LexicalMatch is a single lexical search result. Score is the fraction of
// distinct query terms the chunk contains, already on [0,1].
type LexicalMatch struct {
	ID           string   // Chunk ID
	MatchedTerms []string // Distinct query terms found in the chunk
	Score        float64  // len(MatchedTerms) / total distinct query terms
}

// LexicalIndex provides keyword search over chunk text.
type LexicalIndex interface {
	// Index adds chunks to the index.
	Index(ctx context.Context, chunks []chunk.Chunk) error

	// Search scores chunks by the fraction of distinct query terms they
	// contain and returns up to limit matches, best first.
	Search(ctx context.Context, query string, limit int) ([]*LexicalMatch, error)

	// Delete removes chunks from the index.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of indexed chunks.
	Count() (int, error)

	Close() error
}

// VectorResult is a single vector search result.
type VectorResult struct {
	ID       string  // Chunk ID
	Distance float32 // Lower is more similar (0-2 for cosine)
	Score    float32 // Normalized similarity on [0,1]
}

// VectorStore provides nearest-neighbor search over chunk embeddings.
// Implementations are external capabilities from the retriever's point of
// view: any failure degrades retrieval to lexical-only instead of failing
// the query.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if ID exists.
	Contains(id string) bool

	// Count returns the number of vectors.
	Count() int

	// Persistence. Backends with server-side durability treat these as
	// no-ops.
	Save(path string) error
	Load(path string) error
	Close() error
}

// VectorStoreConfig configures the embedded vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension.
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   64,
	}
}

// MetadataStore persists chunks and corpus state.
type MetadataStore interface {
	// SaveChunks upserts chunks.
	SaveChunks(ctx context.Context, chunks []chunk.Chunk) error

	// GetChunk retrieves one chunk by ID.
	GetChunk(ctx context.Context, id string) (*chunk.Chunk, error)

	// GetChunks retrieves chunks by ID in one query. Missing IDs are
	// silently skipped.
	GetChunks(ctx context.Context, ids []string) ([]chunk.Chunk, error)

	// ChunksOnPage returns the chunks of one source page ordered by
	// sequence index.
	ChunksOnPage(ctx context.Context, source string, page int) ([]chunk.Chunk, error)

	// AllChunks returns every chunk ordered by source, page, sequence.
	AllChunks(ctx context.Context) ([]chunk.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// DeleteAllChunks clears the chunk table for a rebuild.
	DeleteAllChunks(ctx context.Context) error

	// GetState reads a corpus state value. Missing keys return "".
	GetState(ctx context.Context, key string) (string, error)

	// SetState writes a corpus state value.
	SetState(ctx context.Context, key, value string) error

	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch between the
// index and the active embedder.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (rebuild the index with 'polisearch index --force')", e.Expected, e.Got)
}
