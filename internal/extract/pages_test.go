package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

func writePages(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pages.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPages_ParsesAndSorts(t *testing.T) {
	path := writePages(t, `[
		{"page": 2, "text": "제2조 보험금 지급", "source": "policy.pdf"},
		{"page": 1, "text": "제1조 목적", "source": "policy.pdf"}
	]`)

	pages, err := LoadPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, 2, pages[1].Page)
	assert.Equal(t, "제1조 목적", pages[0].Text)
	assert.Equal(t, "policy.pdf", pages[0].Source)
}

func TestLoadPages_AppendsTableRecords(t *testing.T) {
	path := writePages(t, `[
		{"page": 1, "text": "보장내용", "tables": ["[표 1]", "담보 | 보험금액 | 100만원"], "source": "policy.pdf"}
	]`)

	pages, err := LoadPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "보장내용")
	assert.Contains(t, pages[0].Text, "담보 | 보험금액 | 100만원")
	assert.Nil(t, pages[0].Tables)
}

func TestLoadPages_CleansWhitespace(t *testing.T) {
	path := writePages(t, `[
		{"page": 1, "text": "  제1조   목적\n\n\n\n본문  ", "source": "policy.pdf"}
	]`)

	pages, err := LoadPages(path)
	require.NoError(t, err)
	assert.Equal(t, "제1조 목적\n\n본문", pages[0].Text)
}

func TestLoadPages_MissingFile(t *testing.T) {
	_, err := LoadPages(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, polierrors.ErrCodeFileNotFound, polierrors.GetCode(err))
}

func TestLoadPages_MalformedJSON(t *testing.T) {
	path := writePages(t, `{"not": "an array"}`)

	_, err := LoadPages(path)
	require.Error(t, err)
	assert.Equal(t, polierrors.ErrCodeInvalidPages, polierrors.GetCode(err))
}

func TestLoadPages_RejectsNonPositivePage(t *testing.T) {
	path := writePages(t, `[{"page": 0, "text": "x", "source": "policy.pdf"}]`)

	_, err := LoadPages(path)
	require.Error(t, err)
	assert.Equal(t, polierrors.ErrCodeInvalidPages, polierrors.GetCode(err))
}

func TestLoadPages_RejectsDuplicatePageInSameSource(t *testing.T) {
	path := writePages(t, `[
		{"page": 1, "text": "a", "source": "policy.pdf"},
		{"page": 1, "text": "b", "source": "policy.pdf"}
	]`)

	_, err := LoadPages(path)
	require.Error(t, err)
	assert.Equal(t, polierrors.ErrCodeInvalidPages, polierrors.GetCode(err))
}

func TestLoadPages_AllowsSamePageAcrossSources(t *testing.T) {
	path := writePages(t, `[
		{"page": 1, "text": "a", "source": "policy-a.pdf"},
		{"page": 1, "text": "b", "source": "policy-b.pdf"}
	]`)

	pages, err := LoadPages(path)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"collapses spaces", "a    b", "a b"},
		{"collapses blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"trims", "  a  ", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}
