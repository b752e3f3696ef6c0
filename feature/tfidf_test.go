package feature

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func rowNorm(m *CSR, i int) float64 {
	_, vals := m.Row(i)
	var s float64
	for _, v := range vals {
		s += v * v
	}
	return math.Sqrt(s)
}

func TestTFIDFVectorizer_FitTransform(t *testing.T) {
	v := NewTFIDFVectorizer(0)
	docs := []string{"apple banana apple", "banana cherry", ""}
	m, err := v.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	wantTerms := []string{"apple", "banana", "cherry"}
	if len(v.Terms) != len(wantTerms) {
		t.Fatalf("Terms = %v", v.Terms)
	}
	for i, term := range wantTerms {
		if v.Terms[i] != term {
			t.Errorf("Terms[%d] = %q, want %q", i, v.Terms[i], term)
		}
	}

	wantIDF := []float64{math.Log(4.0/2.0) + 1, math.Log(4.0/3.0) + 1, math.Log(4.0/2.0) + 1}
	for i, want := range wantIDF {
		if math.Abs(v.IDF[i]-want) > 1e-12 {
			t.Errorf("IDF[%d] = %v, want %v", i, v.IDF[i], want)
		}
	}

	if r, c := m.Dims(); r != 3 || c != 3 {
		t.Fatalf("Dims = %d×%d", r, c)
	}
	for i := 0; i < 2; i++ {
		if n := rowNorm(m, i); math.Abs(n-1) > 1e-12 {
			t.Errorf("row %d norm = %v", i, n)
		}
	}
	if cols, _ := m.Row(2); len(cols) != 0 {
		t.Errorf("empty document produced %d entries", len(cols))
	}

	cols, vals := m.Row(0)
	ratio := vals[0] / vals[1]
	if len(cols) != 2 || math.Abs(ratio-2*wantIDF[0]/wantIDF[1]) > 1e-12 {
		t.Errorf("row 0 = %v %v", cols, vals)
	}
}

func TestTFIDFVectorizer_MaxFeaturesAndStopWords(t *testing.T) {
	v := NewTFIDFVectorizer(2)
	_, err := v.FitTransform([]string{"the apple and the banana", "apple banana cherry a"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if len(v.Terms) != 2 || v.Terms[0] != "apple" || v.Terms[1] != "banana" {
		t.Errorf("Terms = %v, want [apple banana]", v.Terms)
	}
}

func TestTFIDFVectorizer_EmptyVocabulary(t *testing.T) {
	v := NewTFIDFVectorizer(10)
	m, err := v.FitTransform([]string{"", "a", "the"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if r, c := m.Dims(); r != 3 || c != 0 {
		t.Errorf("Dims = %d×%d, want 3×0", r, c)
	}
}

func TestTFIDFVectorizer_Errors(t *testing.T) {
	v := NewTFIDFVectorizer(10)
	if _, err := v.Transform([]string{"x"}); err == nil {
		t.Error("Transform before Fit should fail")
	}
	if err := v.Fit([]string{"hello world"}); err != nil {
		t.Fatal(err)
	}
	if err := v.Fit([]string{"hello world"}); err == nil {
		t.Error("second Fit should fail")
	}
}

func TestTFIDFVectorizer_JSONRoundTrip(t *testing.T) {
	v := NewTFIDFVectorizer(10)
	docs := []string{"space ship alien", "alien invasion"}
	want, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var loaded TFIDFVectorizer
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Transform(docs)
	if err != nil {
		t.Fatal(err)
	}
	if got.NNZ() != want.NNZ() {
		t.Fatalf("nnz = %d, want %d", got.NNZ(), want.NNZ())
	}
	for i := range want.Data {
		if got.Data[i] != want.Data[i] || got.Indices[i] != want.Indices[i] {
			t.Fatalf("entry %d differs", i)
		}
	}
}
