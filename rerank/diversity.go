package rerank

import (
	"context"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/feature"
	"github.com/rushteam/simrec/pipeline"
)

// Diversity 按主类型限制结果中同类电影的数量，保留先出现的物品，需放在排序之后、截断之前。
// 主类型取 Meta["genres"] 的第一个值；没有类型的物品不受限制。
//
//	nodes:
//	  - type: rerank.sort
//	  - type: rerank.diversity
//	    config:
//	      max_per_genre: 2
//	  - type: rerank.topn
type Diversity struct {
	// MaxPerGenre 每个主类型最多保留的物品数；<= 0 时默认 1
	MaxPerGenre int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	limit := n.MaxPerGenre
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		genres := feature.SplitList(it.MetaString("genres"))
		if len(genres) == 0 {
			out = append(out, it)
			continue
		}
		if seen[genres[0]] >= limit {
			continue
		}
		seen[genres[0]]++
		out = append(out, it)
	}
	return out, nil
}
