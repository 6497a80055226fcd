package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// validTableName restricts the configured table name to identifier
// characters, since it is interpolated into SQL.
var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGVectorStore implements VectorStore on PostgreSQL with the pgvector
// extension. The server owns durability, so Save and Load are no-ops.
// Connection and query failures surface as capability errors so retrieval
// can degrade to lexical-only.
type PGVectorStore struct {
	mu     sync.RWMutex
	pool   *pgxpool.Pool
	table  string
	config VectorStoreConfig
	closed bool
}

// NewPGVectorStore connects to PostgreSQL and ensures the chunk embedding
// table exists with the configured dimension.
func NewPGVectorStore(ctx context.Context, connStr, table string, cfg VectorStoreConfig) (*PGVectorStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %d", cfg.Dimensions)
	}
	if table == "" {
		table = "policy_chunks"
	}
	if !validTableName.MatchString(table) {
		return nil, polierrors.ConfigError(fmt.Sprintf("invalid pgvector table name: %q", table), nil)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to connect to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to ping postgres", err)
	}

	s := &PGVectorStore{
		pool:   pool,
		table:  table,
		config: cfg,
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PGVectorStore) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to enable pgvector extension", err)
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id TEXT PRIMARY KEY,
            embedding vector(%d) NOT NULL
        )
    `, s.table, s.config.Dimensions))
	if err != nil {
		return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			fmt.Sprintf("failed to create table %s", s.table), err)
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`, s.table, s.table))
	if err != nil {
		return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to create vector index", err)
	}

	return nil
}

// Add upserts vectors keyed by chunk ID.
func (s *PGVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	for _, v := range vectors {
		if len(v) != s.config.Dimensions {
			return ErrDimensionMismatch{
				Expected: s.config.Dimensions,
				Got:      len(v),
			}
		}
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (id, embedding) VALUES ($1, $2::vector)
        ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding
    `, s.table)

	for i, id := range ids {
		if _, err := s.pool.Exec(ctx, query, id, vectorLiteral(vectors[i])); err != nil {
			return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
				fmt.Sprintf("failed to upsert vector %s", id), err)
		}
	}

	return nil
}

// Search returns the k nearest chunks by cosine distance.
func (s *PGVectorStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	if len(query) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{
			Expected: s.config.Dimensions,
			Got:      len(query),
		}
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, embedding <=> $1::vector AS distance
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, s.table), vectorLiteral(query), k)
	if err != nil {
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"vector search query failed", err)
	}
	defer rows.Close()

	results := make([]*VectorResult, 0, k)
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, polierrors.New(polierrors.ErrCodeMalformedResult,
				"failed to scan vector search row", err)
		}

		results = append(results, &VectorResult{
			ID:       id,
			Distance: float32(distance),
			Score:    distanceToScore(float32(distance), "cos"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"error iterating vector search rows", err)
	}

	return results, nil
}

// Delete removes vectors by chunk ID.
func (s *PGVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table), ids)
	if err != nil {
		return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to delete vectors", err)
	}

	return nil
}

// DeleteAll clears the table for a full rebuild.
func (s *PGVectorStore) DeleteAll(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return polierrors.New(polierrors.ErrCodeCapabilityUnavailable,
			"failed to truncate vector table", err)
	}
	return nil
}

// Contains reports whether the chunk ID has a stored vector.
func (s *PGVectorStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	var exists bool
	err := s.pool.QueryRow(context.Background(),
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, s.table), id).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}

// Count returns the number of stored vectors. Returns 0 when the query
// fails; the caller treats the backend as unavailable via Search errors.
func (s *PGVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0
	}

	var n int
	err := s.pool.QueryRow(context.Background(),
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	if err != nil {
		return 0
	}
	return n
}

// Save is a no-op: PostgreSQL owns durability.
func (s *PGVectorStore) Save(path string) error {
	return nil
}

// Load is a no-op: PostgreSQL owns durability.
func (s *PGVectorStore) Load(path string) error {
	return nil
}

// Close releases the connection pool.
func (s *PGVectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Verify interface implementation
var _ VectorStore = (*PGVectorStore)(nil)

// vectorLiteral formats a vector as a pgvector text literal: "[1,2,3]".
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, val := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(val), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
