package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/feature"
	"github.com/rushteam/simrec/internal/fixture"
)

func norm32(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestFit_UnitNormAndWidth(t *testing.T) {
	recs := append(fixture.Movies(), fixture.Empty(99))
	tr, emb, err := Fit(context.Background(), recs, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, len(recs), emb.Len())
	assert.Equal(t, 200, emb.Dim)

	for i, v := range emb.Vectors {
		require.Len(t, v, 200)
		if emb.Degenerate[i] {
			assert.Zero(t, norm32(v), "row %d", i)
			continue
		}
		assert.InDelta(t, 1.0, norm32(v), 1e-5, "row %d", i)
	}
	assert.True(t, emb.Degenerate[len(recs)-1], "empty record should be degenerate")
	assert.Equal(t, 1, emb.DegenerateCount())

	for _, field := range feature.TextFields {
		red := tr.Text.Reducers[field]
		require.NotNil(t, red, field)
		assert.LessOrEqual(t, red.NComponents, tr.Text.Vectorizers[field].VocabSize()/2, field)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	recs := fixture.Movies()
	tr, emb, err := Fit(context.Background(), recs, DefaultConfig())
	require.NoError(t, err)

	again, err := tr.Transform(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, emb.Vectors, again.Vectors)
}

func TestSaveLoad_ReproducesSpace(t *testing.T) {
	recs := fixture.Movies()
	tr, emb, err := Fit(context.Background(), recs, DefaultConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, tr.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	got, err := loaded.Transform(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, emb.Vectors, got.Vectors)
}

func TestFit_IdenticalItemsShareVector(t *testing.T) {
	base := fixture.Movies()[0]
	recs := append(fixture.Movies()[1:], fixture.Clone(base, 100))
	for i := int64(101); i < 105; i++ {
		recs = append(recs, fixture.Clone(base, i))
	}
	_, emb, err := Fit(context.Background(), recs, DefaultConfig())
	require.NoError(t, err)

	first := emb.Vectors[len(recs)-5]
	for _, v := range emb.Vectors[len(recs)-4:] {
		require.Len(t, v, len(first))
		for j := range v {
			assert.InDelta(t, first[j], v[j], 1e-6)
		}
	}
}

func TestFit_Errors(t *testing.T) {
	_, _, err := Fit(context.Background(), nil, DefaultConfig())
	assert.True(t, core.IsInvalidInput(err))

	cfg := DefaultConfig()
	cfg.Fields = []string{"plot"}
	_, _, err = Fit(context.Background(), fixture.Movies(), cfg)
	assert.True(t, core.IsInvalidInput(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Fit(ctx, fixture.Movies(), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
