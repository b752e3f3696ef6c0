package filter

import (
	"context"

	"github.com/rushteam/simrec/core"
)

// SelfFilter 剔除查询物品自身。
//
// 按物品 ID 而非向量距离判断：与查询物品向量完全相同的其他物品会被保留。
type SelfFilter struct{}

func (SelfFilter) Name() string { return "filter.self" }

func (SelfFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if rctx == nil {
		return false, nil
	}
	return item.ID == rctx.ItemID, nil
}
