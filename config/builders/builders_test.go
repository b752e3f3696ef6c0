package builders

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/config"
	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pipeline"
)

type fakeSimilarity struct {
	neighbors []core.Neighbor
}

func (f *fakeSimilarity) Resolve(itemID int64) (int64, bool) {
	return itemID, true
}

func (f *fakeSimilarity) Neighbors(_ context.Context, _ int64, k int, _ ...core.SearchOption) ([]core.Neighbor, error) {
	if k > len(f.neighbors) {
		k = len(f.neighbors)
	}
	return f.neighbors[:k], nil
}

type fakeMetadata map[int64]core.Metadata

func (m fakeMetadata) BatchGetMetadata(_ context.Context, ids []int64) (map[int64]core.Metadata, error) {
	out := make(map[int64]core.Metadata, len(ids))
	for _, id := range ids {
		if md, ok := m[id]; ok {
			out[id] = md
		}
	}
	return out, nil
}

const pipelineYAML = `
pipeline:
  name: similar-dramas
  nodes:
    - type: recall.similar
      config:
        nprobe: 16
    - type: catalog.enrich
    - type: filter
      config:
        filters:
          - type: self
          - type: expr
            expr: '"Drama" in item.genres'
    - type: rerank.sort
    - type: rerank.topn
      config:
        n: 2
`

func deps() pipeline.Dependencies {
	return pipeline.Dependencies{
		Similarity: &fakeSimilarity{neighbors: []core.Neighbor{
			{ItemID: 1, Row: 0, Distance: 0},
			{ItemID: 4, Row: 3, Distance: 0.2},
			{ItemID: 3, Row: 2, Distance: 0.2},
			{ItemID: 2, Row: 1, Distance: 0.4},
			{ItemID: 5, Row: 4, Distance: 0.6},
		}},
		Metadata: fakeMetadata{
			1: {ItemID: 1, Title: "Query", Genres: "Drama"},
			2: {ItemID: 2, Title: "Two", Genres: "Drama, Romance"},
			3: {ItemID: 3, Title: "Three", Genres: "Comedy"},
			4: {ItemID: 4, Title: "Four", Genres: "Drama"},
			5: {ItemID: 5, Title: "Five", Genres: "Drama"},
		},
		Logger: zerolog.Nop(),
	}
}

func TestSupportedTypes(t *testing.T) {
	assert.Subset(t, config.SupportedTypes(),
		[]string{"recall.similar", "filter", "rerank.sort", "rerank.topn", "rerank.diversity", "catalog.enrich"})
}

func TestBuildPipeline_FromYAML(t *testing.T) {
	pc, err := pipeline.ParseYAML([]byte(pipelineYAML))
	require.NoError(t, err)
	p, err := config.BuildPipeline(pc, deps())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 5)

	rctx := core.NewRecommendContext(1, 3)
	items, err := p.Run(context.Background(), rctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].ID)
	assert.Equal(t, "Four", items[0].Meta["title"])
	assert.Equal(t, int64(2), items[1].ID)
	assert.InDelta(t, 0.8, items[1].Score, 1e-6)
}

func TestBuildPipeline_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown node", "pipeline:\n  nodes:\n    - type: rank.lr\n"},
		{"no nodes", "pipeline:\n  name: empty\n"},
		{"unknown filter", "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: blacklist\n"},
		{"missing filters", "pipeline:\n  nodes:\n    - type: filter\n"},
		{"bad expression", "pipeline:\n  nodes:\n    - type: filter\n      config:\n        filters:\n          - type: expr\n            expr: 'item.title +'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := pipeline.ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = config.BuildPipeline(pc, deps())
			assert.Error(t, err)
		})
	}

	_, err := BuildSimilarNode(nil, pipeline.Dependencies{})
	assert.Error(t, err)
	_, err = BuildEnrichNode(nil, pipeline.Dependencies{})
	assert.Error(t, err)
}
