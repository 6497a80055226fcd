package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps StaticEmbedder and counts provider calls.
type countingEmbedder struct {
	*StaticEmbedder
	embedCalls int64
	batchCalls int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt64(&c.embedCalls, 1)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&c.batchCalls, 1)
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_SecondCallHitsCache(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	first, err := cached.Embed(context.Background(), "보험금 청구 절차")
	require.NoError(t, err)

	second, err := cached.Embed(context.Background(), "보험금 청구 절차")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.embedCalls))
}

func TestCachedEmbedder_BatchEmbedsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "a")
	require.NoError(t, err)

	vecs, err := cached.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, StaticDimensions)
	}

	// "a" came from the cache, only "b" and "c" went to the provider
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.batchCalls))
}

func TestCachedEmbedder_FullyCachedBatchSkipsProvider(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	texts := []string{"x", "y"}
	_, err := cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	before := atomic.LoadInt64(&inner.batchCalls)
	_, err = cached.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, before, atomic.LoadInt64(&inner.batchCalls))
}

func TestCachedEmbedder_EvictsBeyondCapacity(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 1)

	_, err := cached.Embed(context.Background(), "first")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "second")
	require.NoError(t, err)

	// "first" was evicted, embedding it again calls the provider
	_, err = cached.Embed(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&inner.embedCalls))
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	inner := NewStaticEmbedder()
	cached := NewCachedEmbedder(inner, 10)

	assert.Equal(t, inner.Dimensions(), cached.Dimensions())
	assert.Equal(t, inner.ModelName(), cached.ModelName())
	assert.True(t, cached.Available(context.Background()))
	assert.Same(t, Embedder(inner), cached.Inner())
}

func TestNewEmbedder_StaticProvider(t *testing.T) {
	e, err := NewEmbedder(context.Background(), FactoryOptions{Provider: "static"})
	require.NoError(t, err)
	assert.Equal(t, "static", e.ModelName())
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(context.Background(), FactoryOptions{Provider: "openai"})
	assert.Error(t, err)
}
