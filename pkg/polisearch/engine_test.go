package polisearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisearch/polisearch/internal/config"
	"github.com/polisearch/polisearch/internal/embed"
	"github.com/polisearch/polisearch/internal/extract"
	"github.com/polisearch/polisearch/internal/index"
)

// buildTestIndex builds a one-version snapshot from a small policy and
// returns a config pointing at it.
func buildTestIndex(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()

	pages := []extract.SourcePage{
		{Page: 1, Source: "policy.pdf", Text: "제1조 (면책사항) 회사는 피보험자가 고의로 자신을 해친 경우 보험금을 지급하지 않습니다."},
		{Page: 2, Source: "policy.pdf", Text: "제2조 (보험료의 납입) 계약자는 보험료를 매월 납입하여야 합니다."},
	}

	builder, err := index.NewBuilder(index.Layout{DataDir: dataDir}, embed.NewStaticEmbedder(), index.BuilderOptions{
		ChunkTarget:  20,
		ChunkOverlap: 5,
	})
	require.NoError(t, err)

	snapshot, _, err := builder.Build(context.Background(), pages)
	require.NoError(t, err)
	require.NoError(t, snapshot.Close())

	cfg := config.NewConfig()
	cfg.Paths.DataDir = dataDir
	cfg.Embed.Provider = "static"
	return cfg
}

func TestEngine_SearchAndAssemble(t *testing.T) {
	// Given: an engine over a built index
	cfg := buildTestIndex(t)

	engine, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()

	// When: searching for a page-1 clause
	result, err := engine.Search(context.Background(), "면책사항", engine.Options())

	// Then: the exemption clause ranks first and the context cites page 1
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, 1, result.Chunks[0].Chunk.PageNumber)

	sc := engine.Assemble(result)
	assert.False(t, sc.NoEvidence)
	assert.Contains(t, sc.Pages, 1)
}

func TestEngine_OptionsFollowConfig(t *testing.T) {
	// Given: a config with custom search settings
	cfg := buildTestIndex(t)
	cfg.Search.TopK = 7
	cfg.Search.VectorWeight = 0.3

	engine, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()

	// When: deriving options
	opts := engine.Options()

	// Then: they mirror the config
	assert.Equal(t, 7, opts.TopK)
	assert.InDelta(t, 0.3, opts.VectorWeight, 1e-9)
}

func TestEngine_OpenWithoutIndexFails(t *testing.T) {
	// Given: a config pointing at an empty data directory
	cfg := config.NewConfig()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Embed.Provider = "static"

	// When: opening the engine
	_, err := Open(context.Background(), cfg)

	// Then: it fails with a missing-index error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}
