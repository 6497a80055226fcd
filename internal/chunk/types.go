// Package chunk splits policy document pages into overlapping token windows.
//
// Chunks never cross page boundaries, so every chunk carries exact page
// provenance for citations. Consecutive windows within a page share a fixed
// token overlap so that clauses spanning a window edge stay retrievable.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
)

// Chunk size defaults, matching the extraction pipeline's tuning for
// clause-sized policy text.
const (
	DefaultTargetSize = 300
	DefaultOverlap    = 100
)

// Chunk is a retrievable unit of policy text.
type Chunk struct {
	// ID is SHA256("page:<page>:seq:<seq>:<source>")[:16], stable across
	// rebuilds of the same document.
	ID string

	// Source is the originating document name.
	Source string

	// PageNumber is the 1-based source page this chunk was cut from.
	PageNumber int

	// SequenceIndex is the 0-based window index within the page.
	SequenceIndex int

	// StartToken is the index of the chunk's first token within the page.
	StartToken int

	// TokenCount is the number of tokens in the chunk.
	TokenCount int

	// Text is the chunk content, tokens joined by single spaces.
	Text string
}

// EndToken returns the exclusive end index of the chunk's token window
// within its page.
func (c Chunk) EndToken() int {
	return c.StartToken + c.TokenCount
}

// Options configures the chunker.
type Options struct {
	// TargetSize is the window size in tokens. Must be positive.
	TargetSize int

	// Overlap is the number of tokens shared between consecutive windows.
	// Must be non-negative and strictly less than TargetSize.
	Overlap int

	// Workers is the number of pages chunked concurrently.
	// Zero defaults to GOMAXPROCS.
	Workers int
}

// DefaultOptions returns chunker options with default sizing.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		Overlap:    DefaultOverlap,
		Workers:    runtime.NumCPU(),
	}
}

// ChunkID derives the stable chunk identifier from its provenance.
func ChunkID(page, seq int, source string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("page:%d:seq:%d:%s", page, seq, source)))
	return hex.EncodeToString(sum[:])[:16]
}
