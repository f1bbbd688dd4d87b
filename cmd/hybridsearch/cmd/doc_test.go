package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSpec_ResolvesSlugAsPrimaryID(t *testing.T) {
	spec, err := documentSpec()
	require.NoError(t, err)
	assert.Equal(t, "slug", spec.ResolvedPrimaryID())
}

func TestStaticVector_DeterministicForSameInput(t *testing.T) {
	a := staticVector("goroutines are cheap", 8)
	b := staticVector("goroutines are cheap", 8)
	assert.Equal(t, a, b)
}

func TestStaticVector_DiffersForDifferentInput(t *testing.T) {
	a := staticVector("goroutines", 8)
	b := staticVector("channels", 8)
	assert.NotEqual(t, a, b)
}

func TestStaticVector_RespectsDimension(t *testing.T) {
	v := staticVector("anything", 12)
	assert.Len(t, v, 12)
}
