package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
)

func item(id int64, score float64, genres string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	if genres != "" {
		it.Meta["genres"] = genres
	}
	return it
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSimilaritySort(t *testing.T) {
	items := []*core.Item{item(9, 0.5, ""), item(3, 0.9, ""), item(7, 0.5, ""), item(1, 1, "")}
	out, err := SimilaritySort{}.Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 7, 9}, ids(out))
}

func TestTopNNode(t *testing.T) {
	items := []*core.Item{item(1, 1, ""), item(2, 0.9, ""), item(3, 0.8, "")}
	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		want []int64
	}{
		{"fixed n", 2, nil, []int64{1, 2}},
		{"request top_n", 0, core.NewRecommendContext(5, 1), []int64{1}},
		{"n wins over request", 2, core.NewRecommendContext(5, 1), []int64{1, 2}},
		{"no limit", 0, nil, []int64{1, 2, 3}},
		{"limit above length", 10, nil, []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), tt.rctx, items)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestDiversity(t *testing.T) {
	items := []*core.Item{
		item(1, 0.9, "Drama, Crime"),
		item(2, 0.8, "Drama"),
		item(3, 0.7, "Comedy"),
		item(4, 0.6, ""),
		item(5, 0.5, "Drama, Romance"),
		item(6, 0.4, "Comedy, Drama"),
		nil,
	}

	out, err := (&Diversity{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4}, ids(out))

	out, err = (&Diversity{MaxPerGenre: 2}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 6}, ids(out))
}
