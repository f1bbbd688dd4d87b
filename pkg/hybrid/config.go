package hybrid

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Aman-CERP/hybridsearch/internal/store"
)

// Config configures a new Index. It validates itself before Create
// touches the filesystem, so a bad config never leaves behind a
// half-initialized directory.
type Config struct {
	// Dimension is the embedding vector length every document's
	// vector must have.
	Dimension int

	// Distance selects the ANN distance metric.
	Distance store.Distance

	// M is HNSW's max connections per layer. Zero uses store's default.
	M int

	// EfSearch is HNSW's query-time search width. Zero uses store's
	// default.
	EfSearch int

	// RRFK is the RRF rank-damping constant used by SearchHybrid. Zero
	// uses fusion.DefaultK.
	RRFK int
}

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dimension, validation.Required, validation.Min(1)),
		validation.Field(&c.Distance, validation.Required, validation.In(
			store.DistanceCosine, store.DistanceEuclidean, store.DistanceDot, store.DistanceL1,
		)),
		validation.Field(&c.M, validation.Min(0)),
		validation.Field(&c.EfSearch, validation.Min(0)),
		validation.Field(&c.RRFK, validation.Min(0)),
	)
}

func (c Config) vectorConfig() store.VectorConfig {
	return store.VectorConfig{
		Dimension: c.Dimension,
		Distance:  c.Distance,
		M:         c.M,
		EfSearch:  c.EfSearch,
	}
}
