package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datar-psa/medeval/internal/aggregate"
)

func TestFormat(t *testing.T) {
	var m aggregate.Mapping
	m.Set("ROUGE", 0.5)
	m.Set("BLEU", 10.2)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, m))
	assert.Equal(t, "ROUGE: 0.5\nBLEU: 10.2\n", buf.String())
}

func TestFormat_Values(t *testing.T) {
	var m aggregate.Mapping
	m.Set("a", 1)
	m.Set("b", 0.1+0.2)
	m.Set("c", -3.25)
	m.Set("d", 1e-7)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, m))
	assert.Equal(t, "a: 1\nb: 0.30000000000000004\nc: -3.25\nd: 1e-07\n", buf.String())
}

func TestWrite_CreatesDirectoriesAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "output", "scores.txt")

	var long aggregate.Mapping
	long.Set("ROUGE", 0.123456789)
	long.Set("BLEU", 42)
	long.Set("METEOR", 0.3)
	require.NoError(t, Write(path, long))

	var short aggregate.Mapping
	short.Set("ROUGE", 0.5)
	require.NoError(t, Write(path, short))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ROUGE: 0.5\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestWrite_IsDeterministic(t *testing.T) {
	dir := t.TempDir()
	var m aggregate.Mapping
	m.Set("ROUGE", 0.41)
	m.Set("BLEU", 7.5)
	m.Set("SummaC", 0.66)

	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, Write(first, m))
	require.NoError(t, Write(second, m))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
