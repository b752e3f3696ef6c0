package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pipeline"
)

// SimilaritySort 按相似度降序排序，相似度相同时按物品 ID 升序，结果与检索顺序无关。
type SimilaritySort struct{}

func (SimilaritySort) Name() string { return "rerank.sort" }

func (SimilaritySort) Kind() pipeline.Kind { return pipeline.KindReRank }

func (SimilaritySort) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
