package core

import "context"

// SimilarityService 是相似物品检索的领域接口。
//
// 定义在领域层（core），由 service.IndexContext 实现，召回节点只依赖此接口。
//
// 注意：
//   - 返回结果包含查询物品自身（若被检索到），剔除由过滤阶段负责
//   - Neighbors 按平方 L2 距离升序、行号升序排列
type SimilarityService interface {
	// Resolve 将物品 ID 解析为索引行号；ok=false 表示未知物品，
	// row=-1 且 ok=true 表示物品存在但没有可检索的向量
	Resolve(itemID int64) (row int64, ok bool)

	// Neighbors 检索与 itemID 最近的 k 个邻居
	Neighbors(ctx context.Context, itemID int64, k int, opts ...SearchOption) ([]Neighbor, error)
}

// Neighbor 单个近邻结果
type Neighbor struct {
	ItemID   int64
	Row      int64
	Distance float32 // 平方 L2 距离
}

// SearchParams 单次检索参数；每次调用独立，不修改共享索引状态。
type SearchParams struct {
	NProbe int
}

// SearchOption 单次检索选项
type SearchOption func(*SearchParams)

// WithNProbe 设置本次检索探测的倒排桶数量。
func WithNProbe(n int) SearchOption {
	return func(p *SearchParams) {
		p.NProbe = n
	}
}

// ApplySearchOptions 基于默认值应用选项。
func ApplySearchOptions(defaultNProbe int, opts ...SearchOption) SearchParams {
	p := SearchParams{NProbe: defaultNProbe}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

// Similarity 将单位向量间的平方 L2 距离换算为余弦相似度，并截断到 [-1, 1]。
func Similarity(sqDist float64) float64 {
	s := 1 - sqDist/2
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
