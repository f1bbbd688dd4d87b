package hybrid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/hybridsearch/internal/dsl"
	"github.com/Aman-CERP/hybridsearch/internal/schema"
	"github.com/Aman-CERP/hybridsearch/internal/store"
)

type article struct {
	Slug  string `hybrid:"id"`
	Title string `hybrid:"text"`
	Body  string `hybrid:"text"`
	Views int64  `hybrid:"i64"`
}

// aliasedArticle carries a second declared id field (ExternalID)
// besides its primary (Slug), exercising GetField/DeleteField's
// field-qualified lookup.
type aliasedArticle struct {
	Slug       string `hybrid:"id"`
	ExternalID string `hybrid:"id,name=external_id"`
	Title      string `hybrid:"text"`
}

func newAliasedTestIndex(t *testing.T) *Index[aliasedArticle] {
	t.Helper()
	spec, err := schema.Reflect[aliasedArticle]("Slug")
	require.NoError(t, err)

	dir := t.TempDir()
	idx, err := Create[aliasedArticle](dir, spec, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func testConfig() Config {
	return Config{Dimension: 3, Distance: store.DistanceEuclidean}
}

func newTestIndex(t *testing.T) *Index[article] {
	t.Helper()
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)

	dir := t.TempDir()
	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	_, err = Create[article](t.TempDir(), spec, Config{Dimension: 0})
	assert.Error(t, err)
}

func TestCreateRejectsExistingDirectory(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	dir := t.TempDir()

	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = Create[article](dir, spec, testConfig())
	assert.ErrorIs(t, err, ErrIndexAlreadyExists)
}

func TestAddAndGet(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Add(ctx, article{Slug: "hello", Title: "Hello World", Body: "greeting", Views: 1}, []float32{1, 0, 0})
	require.NoError(t, err)

	got, err := idx.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
}

func TestAddAlwaysAllocatesFreshDocID(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	id1, err := idx.Add(ctx, article{Slug: "a", Title: "v1"}, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.EqualValues(t, 0, id1, "nextDocId starts at 0")

	id2, err := idx.Add(ctx, article{Slug: "a", Title: "v2"}, []float32{0, 1, 0})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id2, "re-adding the same external id allocates the next docId, never reuses the first")
	assert.NotEqual(t, id1, id2)
}

func TestGetMissingReturnsErrMissingDocID(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMissingDocID)
}

func TestDeleteRemovesFromBothEngines(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, idx.Delete(ctx, "a"))
	_, err = idx.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMissingDocID)

	hits, err := idx.SearchVector(ctx, []float32{1, 0, 0}, dsl.All(), 10, 0, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAddVectorDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Add(context.Background(), article{Slug: "a", Title: "Hello"}, []float32{1, 0})
	var dimErr DimensionMismatchError
	assert.ErrorAs(t, err, &dimErr)
}

func TestSearchTextMatchesBM25(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello World", Body: "x"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "Goodbye", Body: "y"}, []float32{0, 1, 0})
	require.NoError(t, err)

	hits, err := idx.SearchText(ctx, dsl.Match("title", "hello"), dsl.All(), 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Doc.Slug)
}

func TestSearchTextAppliesFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello World", Views: 1}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "Hello Again", Views: 99}, []float32{0, 1, 0})
	require.NoError(t, err)

	hits, err := idx.SearchText(ctx, dsl.Match("title", "hello"), dsl.Term("slug", "a"), 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Doc.Slug)
}

func TestSearchVectorAppliesFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "World"}, []float32{1, 0, 0})
	require.NoError(t, err)

	hits, err := idx.SearchVector(ctx, []float32{1, 0, 0}, dsl.Term("slug", "b"), 10, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Doc.Slug)
}

func TestSearchHybridFusesBothLegs(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello World"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "Unrelated text"}, []float32{0.9, 0.1, 0})
	require.NoError(t, err)

	hits, err := idx.SearchHybrid(ctx, dsl.Match("title", "hello"), dsl.All(), []float32{1, 0, 0}, 10, 0, 1, 1, 0, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].Doc.Slug, "doc a agrees on both legs and should rank first")
}

func TestCommitThenLoadRoundTrip(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Commit(ctx))
	require.NoError(t, idx.Close())

	reopened, err := Load[article](dir, "", spec)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)

	info, err := reopened.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.DocCount)
}

func TestLoadMissingMetadataFails(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	_, err = Load[article](t.TempDir(), "", spec)
	assert.ErrorIs(t, err, ErrMetadataMissing)
}

func TestLoadSchemaDriftFails(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	dir := t.TempDir()

	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	type renamed struct {
		Slug  string `hybrid:"id"`
		Title string `hybrid:"text"`
	}
	otherSpec, err := schema.Reflect[renamed]("")
	require.NoError(t, err)

	_, err = Load[renamed](dir, "", otherSpec)
	assert.ErrorIs(t, err, ErrMetadataCorrupt)
}

func TestClearEmptiesBothEngines(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx))
	info, err := idx.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.DocCount)
	assert.Zero(t, info.VectorCount)
}

func TestCompactReclaimsTombstones(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_, err := idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "World"}, []float32{0, 1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Delete(ctx, "a"))
	require.NoError(t, idx.Compact(ctx))

	info, err := idx.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.VectorCount)
}

func TestAddBatchAggregatesErrors(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := []article{{Slug: "a", Title: "Hello"}, {Slug: "b", Title: "World"}}
	vecs := [][]float32{{1, 0, 0}, {1, 0}} // second is wrong dimension

	ids, err := idx.AddBatch(ctx, docs, vecs)
	require.Error(t, err)
	require.Len(t, ids, 2)
	assert.EqualValues(t, 0, ids[0], "first item succeeds and gets the first allocated docId")

	got, err := idx.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)

	_, err = idx.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMissingDocID)
}

func TestOperationsAfterCloseReturnErrClosed(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())

	_, err := idx.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGetFieldResolvesBySecondaryIDField(t *testing.T) {
	idx := newAliasedTestIndex(t)
	ctx := context.Background()

	_, err := idx.Add(ctx, aliasedArticle{Slug: "a", ExternalID: "ext-1", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)

	got, err := idx.GetField(ctx, "external_id", "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Slug)
}

func TestGetFieldRejectsNonIDField(t *testing.T) {
	idx := newAliasedTestIndex(t)
	_, err := idx.GetField(context.Background(), "title", "Hello")
	var invalid InvalidPrimaryIDFieldError
	assert.ErrorAs(t, err, &invalid)
}

func TestDeleteFieldResolvesBySecondaryIDField(t *testing.T) {
	idx := newAliasedTestIndex(t)
	ctx := context.Background()

	_, err := idx.Add(ctx, aliasedArticle{Slug: "a", ExternalID: "ext-1", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteField(ctx, "external_id", "ext-1", true))
	_, err = idx.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMissingDocID)
}

func TestDeletePersistsByDefault(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "World"}, []float32{0, 1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Commit(ctx))

	require.NoError(t, idx.Delete(ctx, "a"))
	require.NoError(t, idx.Close())

	reopened, err := Load[article](dir, "", spec)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMissingDocID, "Delete persists immediately, so the deletion survives a reload without an explicit Commit")

	info, err := reopened.Info(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.DocCount)
}

func TestDeleteBatchPersistsOnceAfterAllItems(t *testing.T) {
	spec, err := schema.Reflect[article]("")
	require.NoError(t, err)
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Create[article](dir, spec, testConfig())
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "a", Title: "Hello"}, []float32{1, 0, 0})
	require.NoError(t, err)
	_, err = idx.Add(ctx, article{Slug: "b", Title: "World"}, []float32{0, 1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Commit(ctx))

	require.Error(t, idx.DeleteBatch(ctx, []string{"a", "missing", "b"}))
	require.NoError(t, idx.Close())

	reopened, err := Load[article](dir, "", spec)
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.DocCount)
}
