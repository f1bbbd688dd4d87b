package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorInsertAndSearch(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 3, Distance: DistanceEuclidean})
	require.NoError(t, err)

	require.NoError(t, idx.Insert(1, []float32{1, 0, 0}))
	require.NoError(t, idx.Insert(2, []float32{0, 1, 0}))
	require.NoError(t, idx.Insert(3, []float32{10, 10, 10}))

	hits, err := idx.Search([]float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, uint64(1), hits[0].DocID)
}

func TestVectorDimensionMismatch(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 3})
	require.NoError(t, err)

	err = idx.Insert(1, []float32{1, 2})
	var dimErr DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)
}

func TestVectorLazyDeleteExcludesFromSearch(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceEuclidean})
	require.NoError(t, err)

	require.NoError(t, idx.Insert(1, []float32{0, 0}))
	require.NoError(t, idx.Insert(2, []float32{0, 0.1}))
	require.NoError(t, idx.Delete(1))

	assert.Equal(t, 1, idx.Len())
	hits, err := idx.Search([]float32{0, 0}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(2), hits[0].DocID)
}

func TestVectorCompactRebuildsGraph(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceEuclidean})
	require.NoError(t, err)

	require.NoError(t, idx.Insert(1, []float32{0, 0}))
	require.NoError(t, idx.Insert(2, []float32{1, 1}))
	require.NoError(t, idx.Delete(1))
	require.NoError(t, idx.Compact())

	assert.Equal(t, 1, idx.Len())
	hits, err := idx.Search([]float32{1, 1}, 5, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(2), hits[0].DocID)
}

func TestVectorSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors", "hnsw")

	idx, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceEuclidean})
	require.NoError(t, err)
	require.NoError(t, idx.Insert(1, []float32{0, 0}))
	require.NoError(t, idx.Insert(2, []float32{5, 5}))
	require.NoError(t, idx.Save(path))

	restored, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceEuclidean})
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))

	assert.Equal(t, 2, restored.Len())
	hits, err := restored.Search([]float32{0, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].DocID)
}

func TestVectorDotDistanceMetric(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceDot})
	require.NoError(t, err)
	require.NoError(t, idx.Insert(1, []float32{1, 0}))
	require.NoError(t, idx.Insert(2, []float32{-1, 0}))

	hits, err := idx.Search([]float32{1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].DocID)
}

func TestVectorL1DistanceMetric(t *testing.T) {
	idx, err := NewVectorIndex(VectorConfig{Dimension: 2, Distance: DistanceL1})
	require.NoError(t, err)
	require.NoError(t, idx.Insert(1, []float32{0, 0}))
	require.NoError(t, idx.Insert(2, []float32{3, 3}))

	hits, err := idx.Search([]float32{0.1, 0.1}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].DocID)
}

func TestNewVectorIndexRejectsNonPositiveDimension(t *testing.T) {
	_, err := NewVectorIndex(VectorConfig{Dimension: 0})
	assert.Error(t, err)
}
