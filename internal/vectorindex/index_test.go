package vectorindex

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsParallelArrayMismatch(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	_, err := New(vectors, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel arrays")
}

func TestNewRejectsRaggedRows(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1, 0}}
	_, err := New(vectors, []string{"a", "b"})
	require.Error(t, err)
}

func TestNewNormalizesRows(t *testing.T) {
	ix, err := New([][]float32{{3, 4}}, []string{"a"})
	require.NoError(t, err)

	scores, positions := ix.Nearest([]float32{0.6, 0.8}, 1)
	require.Len(t, positions, 1)
	assert.InDelta(t, 1.0, scores[0], 1e-6, "stored row must be unit length")
}

func TestNearestOrdering(t *testing.T) {
	ix, err := New([][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	}, []string{"x", "y", "diag"})
	require.NoError(t, err)

	scores, positions := ix.Nearest([]float32{1, 0}, 3)
	require.Equal(t, []int{0, 2, 1}, positions)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, math.Sqrt2/2, scores[1], 1e-4)
	assert.InDelta(t, 0.0, scores[2], 1e-6)
	assert.Equal(t, "x", ix.IDAt(positions[0]))
}

func TestNearestStableTies(t *testing.T) {
	ix, err := New([][]float32{
		{1, 0},
		{1, 0},
		{1, 0},
	}, []string{"first", "second", "third"})
	require.NoError(t, err)

	_, positions := ix.Nearest([]float32{1, 0}, 3)
	assert.Equal(t, []int{0, 1, 2}, positions, "equal scores keep stored order")
}

func TestNearestClampsAndRejects(t *testing.T) {
	ix, err := New([][]float32{{1, 0}}, []string{"a"})
	require.NoError(t, err)

	scores, positions := ix.Nearest([]float32{1, 0}, 10)
	assert.Len(t, scores, 1)
	assert.Len(t, positions, 1)

	scores, positions = ix.Nearest([]float32{1, 0}, 0)
	assert.Nil(t, scores)
	assert.Nil(t, positions)

	// Dimensionality mismatch yields no results rather than a panic.
	scores, positions = ix.Nearest([]float32{1, 0, 0}, 1)
	assert.Nil(t, scores)
	assert.Nil(t, positions)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNormalizeID(t *testing.T) {
	id, err := NormalizeID("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	id, err = NormalizeID(float64(42))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = NormalizeID(float64(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", id)

	id, err = NormalizeID(int64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", id)

	_, err = NormalizeID([]string{"nope"})
	require.Error(t, err)
}

func TestMatrixRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")

	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{-1, 0, 2.5},
	}
	require.NoError(t, SaveMatrix(path, vectors))

	loaded, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, vectors, loaded)
}

func TestLoadMatrixRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.json")
	require.NoError(t, SaveIDs(path, []string{"not", "a", "matrix"}))

	_, err := LoadMatrix(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestLoadIDsMixedTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a", 2, 3.5]`), 0o644))

	ids, err := LoadIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", "3.5"}, ids)
}

func TestLoadRejectsLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectors.bin")
	idsPath := filepath.Join(dir, "ids.json")

	require.NoError(t, SaveMatrix(vecPath, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, SaveIDs(idsPath, []string{"only-one"}))

	_, err := Load(vecPath, idsPath)
	require.Error(t, err)
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vecPath := filepath.Join(dir, "vectors.bin")
	idsPath := filepath.Join(dir, "ids.json")

	require.NoError(t, SaveMatrix(vecPath, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, SaveIDs(idsPath, []string{"n1", "n2"}))

	ix, err := Load(vecPath, idsPath)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 2, ix.Dims())
	assert.Equal(t, "n2", ix.IDAt(1))
	assert.Equal(t, "", ix.IDAt(5))
}
