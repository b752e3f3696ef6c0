package feature

import (
	"strings"
	"testing"

	"github.com/rushteam/simrec/core"
)

func TestLimitList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		max   int
		want  string
	}{
		{name: "truncate", value: "A, B, C, D, E", max: 3, want: "A, B, C"},
		{name: "shorter than limit", value: "A,B", max: 3, want: "A, B"},
		{name: "empty", value: "", max: 3, want: ""},
		{name: "drops blank entries", value: " A , , B ,", max: 10, want: "A, B"},
		{name: "zero limit keeps all", value: "A, B, C", max: 0, want: "A, B, C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LimitList(tt.value, tt.max); got != tt.want {
				t.Errorf("LimitList(%q, %d) = %q, want %q", tt.value, tt.max, got, tt.want)
			}
		})
	}
}

func TestTextNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		stemmer Stemmer
		text    string
		want    string
	}{
		{name: "punctuation becomes spaces", stemmer: IdentityStemmer, text: "Alien robot, war-ship!", want: "alien robot war ship"},
		{name: "collapses whitespace", stemmer: IdentityStemmer, text: "  Space \t\n Odyssey ", want: "space odyssey"},
		{name: "empty", stemmer: IdentityStemmer, text: "", want: ""},
		{name: "only punctuation", stemmer: IdentityStemmer, text: "!!! ...", want: ""},
		{name: "keeps digits and underscore", stemmer: IdentityStemmer, text: "R2_D2 & C-3PO", want: "r2_d2 c 3po"},
		{name: "snowball stemming", stemmer: SnowballStemmer{}, text: "Running quickly", want: "run quick"},
		{name: "custom stemmer", stemmer: StemmerFunc(strings.ToUpper), text: "a b", want: "A B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewTextNormalizer(tt.stemmer)
			if got := n.Normalize(tt.text); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTextNormalizer_Idempotent(t *testing.T) {
	n := NewTextNormalizer(nil)
	once := n.Normalize("Alien robot, war-ship!")
	if once != "alien robot war ship" {
		t.Fatalf("first pass = %q", once)
	}
	if twice := n.Normalize(once); twice != once {
		t.Errorf("second pass = %q, want %q", twice, once)
	}
}

func TestNormalizeRecord(t *testing.T) {
	rec := core.Record{
		MovieID:             7,
		Genres:              "Drama, Action, Comedy, Thriller, Horror",
		Cast:                "A, B, C, D, E, F, G, H, I, J, K, L",
		Director:            "X, Y, Z",
		ProductionCountries: "US, GB, FR",
		SpokenLanguages:     "en",
		Overview:            "A ship!",
	}
	got := NormalizeRecord(rec, nil, NewTextNormalizer(IdentityStemmer))

	if got.MovieID != 7 {
		t.Errorf("MovieID = %d", got.MovieID)
	}
	if len(got.Genres) != 4 || got.Genres[3] != "Thriller" {
		t.Errorf("Genres = %v", got.Genres)
	}
	if len(got.Countries) != 2 {
		t.Errorf("Countries = %v", got.Countries)
	}
	if len(got.Languages) != 1 || got.Languages[0] != "en" {
		t.Errorf("Languages = %v", got.Languages)
	}
	if got.Text[FieldDirector] != "x y" {
		t.Errorf("director = %q", got.Text[FieldDirector])
	}
	if n := len(strings.Fields(got.Text[FieldCast])); n != 10 {
		t.Errorf("cast tokens = %d, want 10", n)
	}
	if got.Text[FieldOverview] != "a ship" {
		t.Errorf("overview = %q", got.Text[FieldOverview])
	}
	if got.Text[FieldTagline] != "" {
		t.Errorf("tagline = %q, want empty", got.Text[FieldTagline])
	}
}
