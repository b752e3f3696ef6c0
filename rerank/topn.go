package rerank

import (
	"context"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// N > 0 时按 N 截断；否则使用请求的 RecommendContext.TopN；
// 两者都未设置时不截断。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.SimilarItems{...},
//	        &filter.FilterNode{Filters: []filter.Filter{filter.SelfFilter{}}},
//	        &rerank.SimilaritySort{},
//	        &rerank.TopNNode{},
//	    },
//	}
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.TopN
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
