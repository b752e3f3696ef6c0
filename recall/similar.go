package recall

import (
	"context"
	"errors"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/pkg/conv"
	"github.com/rushteam/simrec/pkg/utils"
)

// ParamNProbe 请求级 nprobe 覆盖参数（RecommendContext.Params）
const ParamNProbe = "nprobe"

// ErrNoSimilarityService 未配置检索服务
var ErrNoSimilarityService = errors.New("recall: similarity service is nil")

// SimilarItems 是基于内容向量的相似物品召回节点。
//
// 检索 TopN+1 个近邻（多出的一个留给查询物品自身），距离换算为相似度写入 Score。
// 查询物品自身不在这里剔除，由 filter.SelfFilter 负责。
type SimilarItems struct {
	Service core.SimilarityService

	// NProbe 每次检索探测的倒排桶数量；<= 0 时使用索引默认值
	NProbe int
}

func (r *SimilarItems) Name() string { return "recall.similar" }

func (r *SimilarItems) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *SimilarItems) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if r.Service == nil {
		return nil, ErrNoSimilarityService
	}
	if rctx == nil || rctx.TopN <= 0 {
		return items, nil
	}

	var opts []core.SearchOption
	nprobe := r.NProbe
	if n, ok := conv.ToInt(rctx.Param(ParamNProbe)); ok && n > 0 {
		nprobe = n
	}
	if nprobe > 0 {
		opts = append(opts, core.WithNProbe(nprobe))
	}

	neighbors, err := r.Service.Neighbors(ctx, rctx.ItemID, rctx.TopN+1, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(items)+len(neighbors))
	out = append(out, items...)
	for _, nb := range neighbors {
		it := core.NewItem(nb.ItemID)
		it.Row = nb.Row
		it.Distance = float64(nb.Distance)
		it.Score = core.Similarity(it.Distance)
		it.PutLabel("recall_source", utils.Label{Value: "similar", Source: "recall"})
		it.PutLabel("distance", utils.FloatLabel(it.Distance, "recall"))
		out = append(out, it)
	}
	return out, nil
}
