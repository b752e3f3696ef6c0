package vector

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
)

// unitVectors 生成 n 个种子固定的 dim 维单位向量
func unitVectors(n, dim int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		var norm float64
		for d := range v {
			v[d] = float32(rng.NormFloat64())
			norm += float64(v[d]) * float64(v[d])
		}
		inv := float32(1 / math.Sqrt(norm))
		for d := range v {
			v[d] *= inv
		}
		out[i] = v
	}
	return out
}

func trainedIVF(t *testing.T, vectors [][]float32, opts IVFOptions, options ...IVFOption) *IVFFlat {
	t.Helper()
	ctx := context.Background()
	ix := NewIVFFlat(len(vectors[0]), opts, options...)
	require.NoError(t, ix.Train(ctx, vectors))
	require.NoError(t, ix.Add(ctx, vectors))
	return ix
}

func TestIVFFlat_StateMachine(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(20, 4, 1)
	ix := NewIVFFlat(4, IVFOptions{NList: 4, NProbe: 2})
	assert.Equal(t, StateUninitialized, ix.State())

	err := ix.Add(ctx, vecs)
	assert.ErrorIs(t, err, ErrIndexNotTrained)
	_, err = ix.Search(ctx, vecs[0], 3)
	assert.ErrorIs(t, err, ErrIndexNotReady)

	require.NoError(t, ix.Train(ctx, vecs))
	assert.Equal(t, StateTrained, ix.State())
	assert.ErrorIs(t, ix.Train(ctx, vecs), ErrIndexAlreadyTrained)
	_, err = ix.Search(ctx, vecs[0], 3)
	assert.ErrorIs(t, err, ErrIndexNotReady)

	require.NoError(t, ix.Add(ctx, vecs))
	assert.Equal(t, StatePopulated, ix.State())
	assert.Equal(t, int64(20), ix.Ntotal())

	res, err := ix.Search(ctx, vecs[0], 3)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, int64(0), res[0].Row)
	assert.InDelta(t, 0, res[0].Distance, 1e-6)
}

func TestIVFFlat_Errors(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(10, 4, 2)

	t.Run("empty training set", func(t *testing.T) {
		ix := NewIVFFlat(4, IVFOptions{NList: 2})
		assert.ErrorIs(t, ix.Train(ctx, nil), ErrEmptyTrainingSet)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		ix := trainedIVF(t, vecs, IVFOptions{NList: 2, NProbe: 2})
		err := ix.Add(ctx, [][]float32{{1, 0, 0}})
		assert.True(t, core.IsDimensionMismatch(err))
		_, err = ix.Search(ctx, []float32{1, 0}, 1)
		assert.True(t, core.IsDimensionMismatch(err))
	})

	t.Run("reconstruct out of range", func(t *testing.T) {
		ix := trainedIVF(t, vecs, IVFOptions{NList: 2, NProbe: 2})
		_, err := ix.Reconstruct(10)
		assert.True(t, core.IsNotFound(err))
		_, err = ix.Reconstruct(-1)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("32-bit id overflow", func(t *testing.T) {
		ix := trainedIVF(t, vecs, IVFOptions{NList: 2, NProbe: 2, Indices32: true})
		ix.ntotal = math.MaxInt32
		assert.ErrorIs(t, ix.Add(ctx, vecs[:1]), ErrIDOverflow)
	})
}

func TestIVFFlat_NListClamp(t *testing.T) {
	ix := trainedIVF(t, unitVectors(10, 4, 3), IVFOptions{NList: 64, NProbe: 128})
	assert.Equal(t, 10, ix.NList())
	assert.Equal(t, 10, ix.DefaultNProbe())
}

func TestIVFFlat_FullProbeMatchesFlat(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(300, 16, 4)
	ix := trainedIVF(t, vecs, IVFOptions{NList: 12, NProbe: 2, Seed: 42})

	flat := NewFlatL2(16, nil)
	require.NoError(t, flat.Add(ctx, vecs))

	for _, qi := range []int{0, 17, 150, 299} {
		want, err := flat.Search(ctx, vecs[qi], 10)
		require.NoError(t, err)
		got, err := ix.Search(ctx, vecs[qi], 10, core.WithNProbe(ix.NList()))
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %d", qi)
	}
}

func TestIVFFlat_NProbeIsPerCall(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(200, 8, 5)
	ix := trainedIVF(t, vecs, IVFOptions{NList: 10, NProbe: 1})

	_, err := ix.Search(ctx, vecs[3], 5, core.WithNProbe(10))
	require.NoError(t, err)
	assert.Equal(t, 1, ix.DefaultNProbe())

	res, err := ix.Search(ctx, vecs[3], 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res[0].Row)
}

func TestIVFFlat_ParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(500, 12, 6)
	opts := IVFOptions{NList: 16, NProbe: 4, Seed: 42, Indices32: true}

	serial := trainedIVF(t, vecs, opts)
	parallel := trainedIVF(t, vecs, opts, WithDevice(NewParallelDevice(Resources{Workers: 4})))
	assert.Equal(t, "ivf-flat-cpu", serial.Backend())
	assert.Equal(t, "ivf-flat-parallel", parallel.Backend())

	for _, qi := range []int{0, 99, 321} {
		want, err := serial.Search(ctx, vecs[qi], 8)
		require.NoError(t, err)
		got, err := parallel.Search(ctx, vecs[qi], 8)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIVFFlat_Reconstruct(t *testing.T) {
	vecs := unitVectors(50, 6, 7)
	ix := trainedIVF(t, vecs, IVFOptions{NList: 5, NProbe: 5})
	for _, row := range []int64{0, 24, 49} {
		got, err := ix.Reconstruct(row)
		require.NoError(t, err)
		assert.Equal(t, vecs[row], got)
	}
}

func TestIVFFlat_DeviceTransfer(t *testing.T) {
	vecs := unitVectors(40, 4, 8)
	ix := trainedIVF(t, vecs, IVFOptions{NList: 4, NProbe: 4})

	_, err := ix.ToDevice(DisabledDevice{})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	_, err = ix.ToDevice(NewParallelDevice(Resources{TempMemory: 16}))
	assert.ErrorIs(t, err, ErrTempMemoryExceeded)

	moved, err := ix.ToDevice(NewParallelDevice(Resources{}))
	require.NoError(t, err)
	assert.True(t, moved.Accelerated())
	assert.False(t, moved.ToCPU().Accelerated())
	assert.Equal(t, ix.Ntotal(), moved.Ntotal())
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	vecs := unitVectors(120, 8, 9)
	for _, idx32 := range []bool{true, false} {
		ix := trainedIVF(t, vecs, IVFOptions{NList: 6, NProbe: 3, Indices32: idx32, Seed: 42},
			WithDevice(NewParallelDevice(Resources{Workers: 2})))
		path := filepath.Join(t.TempDir(), "test.index")

		require.NoError(t, Save(ix, path))
		assert.Equal(t, StateSaved, ix.State())

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, StateLoaded, loaded.State())
		assert.False(t, loaded.Accelerated())
		assert.Equal(t, ix.Ntotal(), loaded.Ntotal())
		assert.Equal(t, ix.NList(), loaded.NList())
		assert.Equal(t, idx32, loaded.Indices32())

		for _, qi := range []int{0, 60, 119} {
			want, err := ix.Search(ctx, vecs[qi], 5)
			require.NoError(t, err)
			got, err := loaded.Search(ctx, vecs[qi], 5)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			v, err := loaded.Reconstruct(int64(qi))
			require.NoError(t, err)
			assert.Equal(t, vecs[qi], v)
		}

		err = loaded.Add(ctx, vecs[:1])
		assert.True(t, core.IsInvalidState(err))
	}
}

func TestSave_NotReady(t *testing.T) {
	ix := NewIVFFlat(4, IVFOptions{NList: 2})
	assert.ErrorIs(t, Save(ix, filepath.Join(t.TempDir(), "x.index")), ErrIndexNotReady)
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.index"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.index")
	ix := trainedIVF(t, unitVectors(20, 4, 10), IVFOptions{NList: 2, NProbe: 2})
	require.NoError(t, Save(ix, path))
	require.NoError(t, os.WriteFile(path, []byte("not an index file at all"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestTopK_Order(t *testing.T) {
	tk := newTopK(3)
	for _, r := range []Result{
		{Row: 5, Distance: 0.5},
		{Row: 2, Distance: 0.1},
		{Row: 9, Distance: 0.1},
		{Row: 1, Distance: 0.9},
		{Row: 0, Distance: 0.5},
	} {
		tk.push(r)
	}
	assert.Equal(t, []Result{
		{Row: 2, Distance: 0.1},
		{Row: 9, Distance: 0.1},
		{Row: 0, Distance: 0.5},
	}, tk.sorted())

	merged := mergeTopK(2, []Result{{Row: 4, Distance: 0.2}}, nil, []Result{{Row: 3, Distance: 0.2}, {Row: 1, Distance: 0.3}})
	assert.Equal(t, []Result{{Row: 3, Distance: 0.2}, {Row: 4, Distance: 0.2}}, merged)
}
