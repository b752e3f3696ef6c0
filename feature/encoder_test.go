package feature

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestMultiHotEncoder(t *testing.T) {
	e := NewMultiHotEncoder("genres")
	if err := e.Fit([][]string{{"Drama", "Action"}, {"Comedy"}, nil}); err != nil {
		t.Fatal(err)
	}
	if e.Width() != 3 {
		t.Fatalf("Width = %d", e.Width())
	}

	tests := []struct {
		name string
		tags []string
		want []float64
	}{
		{name: "single", tags: []string{"Drama"}, want: []float64{0, 0, 1}},
		{name: "multi", tags: []string{"Comedy", "Action"}, want: []float64{1, 1, 0}},
		{name: "unknown ignored", tags: []string{"Western", "Drama"}, want: []float64{0, 0, 1}},
		{name: "empty", tags: nil, want: []float64{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Encode(tt.tags); !floats.Equal(got, tt.want) {
				t.Errorf("Encode(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestCategoricalEncoder(t *testing.T) {
	recs := []NormalizedRecord{
		{Genres: []string{"Drama"}, Languages: []string{"en"}, Countries: []string{"US"}},
		{Genres: []string{"Comedy", "Drama"}, Languages: []string{"fr"}},
	}
	c := NewCategoricalEncoder()
	if err := c.Fit(recs); err != nil {
		t.Fatal(err)
	}
	if c.Width() != 5 {
		t.Fatalf("Width = %d, want 5", c.Width())
	}
	m := c.Transform(recs)
	want := mat.NewDense(2, 5, []float64{
		0, 1, 1, 0, 1,
		1, 1, 0, 1, 0,
	})
	if !mat.Equal(m, want) {
		t.Errorf("Transform =\n%v\nwant\n%v", mat.Formatted(m), mat.Formatted(want))
	}
}

func TestNormalizeRowsAndConcat(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{3, 4, 0, 0})
	b := mat.NewDense(2, 1, []float64{0, 0})
	m := ConcatColumns(a, nil, b)
	if r, c := m.Dims(); r != 2 || c != 3 {
		t.Fatalf("Dims = %d×%d", r, c)
	}
	zero := NormalizeRows(m)
	if len(zero) != 1 || zero[0] != 1 {
		t.Errorf("zero rows = %v, want [1]", zero)
	}
	if math.Abs(m.At(0, 0)-0.6) > 1e-12 || math.Abs(m.At(0, 1)-0.8) > 1e-12 {
		t.Errorf("row 0 = %v", m.RawRowView(0))
	}
	f := ToFloat32(m)
	if len(f) != 2 || len(f[0]) != 3 || f[1][0] != 0 {
		t.Errorf("ToFloat32 = %v", f)
	}
}
