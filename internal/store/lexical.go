package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/polisearch/polisearch/internal/chunk"
)

const (
	// PolicyTokenizerName is the name of the custom policy text tokenizer.
	PolicyTokenizerName = "policy_tokenizer"

	// PolicyAnalyzerName is the name of the custom policy text analyzer.
	PolicyAnalyzerName = "policy_analyzer"

	// maxHitsPerTerm caps how many chunks a single query term can
	// contribute to the candidate union.
	maxHitsPerTerm = 1000
)

func init() {
	_ = registry.RegisterTokenizer(PolicyTokenizerName, policyTokenizerConstructor)
}

// BleveLexicalIndex implements LexicalIndex on Bleve.
//
// Scoring deliberately ignores Bleve's TF-IDF: a chunk's lexical score is
// the fraction of distinct query terms it contains, computed by running one
// term query per normalized query term and unioning the hits.
type BleveLexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// bleveChunkDoc is the document structure for Bleve indexing.
type bleveChunkDoc struct {
	Text string `json:"text"`
}

// validateIndexIntegrity checks if a Bleve index is valid before opening.
// Returns nil if valid, error describing corruption if not.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Index doesn't exist, will be created
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// NewBleveLexicalIndex creates a lexical index at path.
// If path is empty, creates an in-memory index.
// A corrupted on-disk index is cleared and recreated; the caller is
// expected to reindex.
func NewBleveLexicalIndex(path string) (*BleveLexicalIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("lexical_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("lexical index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("lexical_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &BleveLexicalIndex{
		index: idx,
		path:  path,
	}, nil
}

// createIndexMapping creates the Bleve index mapping.
// No stemming and no stop words: the distinct-term counting contract
// requires exact normalized terms in the index.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(PolicyAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": PolicyTokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = PolicyAnalyzerName
	return indexMapping, nil
}

// Index adds chunks to the index.
func (b *BleveLexicalIndex) Index(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, bleveChunkDoc{Text: c.Text}); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// Search scores chunks by distinct-query-term coverage.
// An empty or token-free query returns no matches.
func (b *BleveLexicalIndex) Search(ctx context.Context, query string, limit int) ([]*LexicalMatch, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	terms := chunk.NormalizeTerms(query)
	if len(terms) == 0 {
		return []*LexicalMatch{}, nil
	}

	// One term query per distinct query term; a chunk's match count is the
	// number of term queries that hit it.
	matched := make(map[string][]string)
	for _, term := range terms {
		tq := bleve.NewTermQuery(term)
		tq.SetField("text")

		req := bleve.NewSearchRequestOptions(tq, maxHitsPerTerm, 0, false)
		req.Fields = []string{}

		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("term search failed: %w", err)
		}

		for _, hit := range res.Hits {
			matched[hit.ID] = append(matched[hit.ID], term)
		}
	}

	total := float64(len(terms))
	results := make([]*LexicalMatch, 0, len(matched))
	for id, hits := range matched {
		results = append(results, &LexicalMatch{
			ID:           id,
			MatchedTerms: hits,
			Score:        float64(len(hits)) / total,
		})
	}

	// Best coverage first; ties broken by ID for determinism.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Delete removes chunks from the index.
func (b *BleveLexicalIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	return nil
}

// Count returns the number of indexed chunks.
func (b *BleveLexicalIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}

	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close closes the index.
func (b *BleveLexicalIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// Verify interface implementation
var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// policyTokenRegex matches letter and digit runs in any script, matching
// the chunker's tokenizer so indexed terms and query terms line up.
var policyTokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// policyTokenizerConstructor creates the policy text tokenizer for Bleve.
func policyTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &blevePolicyTokenizer{}, nil
}

// blevePolicyTokenizer implements analysis.Tokenizer for policy text.
type blevePolicyTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *blevePolicyTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	locs := policyTokenRegex.FindAllStringIndex(text, -1)

	result := make(analysis.TokenStream, 0, len(locs))
	for i, loc := range locs {
		term := text[loc[0]:loc[1]]
		result = append(result, &analysis.Token{
			Term:     []byte(term),
			Start:    loc[0],
			End:      loc[1],
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
	}
	return result
}
