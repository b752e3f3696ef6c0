// Package service 组装相似物品查询：显式的 ID↔行号映射、ANN 检索与查询 Pipeline。
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/vector"
)

// DefaultQueryNProbe 查询默认探测桶数量
const DefaultQueryNProbe = 50

var (
	// ErrItemNotFound 物品不在参照表中
	ErrItemNotFound = core.NewDomainError(core.ModuleService, core.ErrorCodeNotFound, "service: item not found")

	// ErrNoEmbedding 物品没有可检索的向量
	ErrNoEmbedding = core.NewDomainError(core.ModuleService, core.ErrorCodeFailedPrecondition, "service: item has no embedding")
)

// IndexContext 持有索引与显式的 ID↔行号映射，构建后只读，可并发查询。
type IndexContext struct {
	index  vector.Index
	rowOf  map[int64]int64 // itemID → row；-1 表示无向量
	idOf   []int64         // row → itemID
	nprobe int
	logger zerolog.Logger
}

var _ core.SimilarityService = (*IndexContext)(nil)

// NewIndexContext 校验参照表与索引一致后建立映射。nprobe <= 0 时使用 DefaultQueryNProbe。
func NewIndexContext(index vector.Index, entries []catalog.Entry, nprobe int, logger zerolog.Logger) (*IndexContext, error) {
	ntotal := index.Ntotal()
	if err := catalog.ValidateReference(entries, ntotal); err != nil {
		return nil, err
	}
	if nprobe <= 0 {
		nprobe = DefaultQueryNProbe
	}
	ic := &IndexContext{
		index:  index,
		rowOf:  make(map[int64]int64, len(entries)),
		idOf:   make([]int64, ntotal),
		nprobe: nprobe,
		logger: logger,
	}
	for _, e := range entries {
		ic.rowOf[e.ItemID] = e.Row
		if e.Indexed() {
			ic.idOf[e.Row] = e.ItemID
		}
	}
	return ic, nil
}

// Index 返回底层索引
func (ic *IndexContext) Index() vector.Index { return ic.index }

// Len 返回已知物品数（含无向量的物品）
func (ic *IndexContext) Len() int { return len(ic.rowOf) }

// NProbe 返回查询默认探测桶数量
func (ic *IndexContext) NProbe() int { return ic.nprobe }

func (ic *IndexContext) Resolve(itemID int64) (int64, bool) {
	row, ok := ic.rowOf[itemID]
	if !ok {
		return -1, false
	}
	return row, true
}

// ItemID 行号反查物品 ID
func (ic *IndexContext) ItemID(row int64) (int64, bool) {
	if row < 0 || row >= int64(len(ic.idOf)) {
		return 0, false
	}
	return ic.idOf[row], true
}

// Neighbors 以物品自身存储的向量为查询，返回 k 个近邻（可能包含物品自身）。
func (ic *IndexContext) Neighbors(ctx context.Context, itemID int64, k int, opts ...core.SearchOption) ([]core.Neighbor, error) {
	row, ok := ic.Resolve(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	if row < 0 {
		return nil, ErrNoEmbedding
	}
	query, err := ic.index.Reconstruct(row)
	if err != nil {
		return nil, fmt.Errorf("reconstruct item %d: %w", itemID, err)
	}

	all := make([]core.SearchOption, 0, len(opts)+1)
	all = append(all, core.WithNProbe(ic.nprobe))
	all = append(all, opts...)
	results, err := ic.index.Search(ctx, query, k, all...)
	if err != nil {
		return nil, err
	}

	out := make([]core.Neighbor, 0, len(results))
	for _, r := range results {
		id, ok := ic.ItemID(r.Row)
		if !ok {
			return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError,
				fmt.Sprintf("service: index returned unknown row %d", r.Row))
		}
		out = append(out, core.Neighbor{ItemID: id, Row: r.Row, Distance: r.Distance})
	}
	ic.logger.Debug().Int64("item_id", itemID).Int("k", k).Int("hits", len(out)).Msg("neighbors searched")
	return out, nil
}
