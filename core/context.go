package core

// RecommendContext 承载一次相似物品查询的请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// ItemID 是查询物品；结果中永远不包含它自身
	ItemID int64

	// TopN 是期望返回的结果数
	TopN int

	// Params 请求级参数，例如 nprobe；过滤表达式中以 rctx.params 读取
	Params map[string]any
}

// NewRecommendContext 创建查询上下文。
func NewRecommendContext(itemID int64, topN int) *RecommendContext {
	return &RecommendContext{
		ItemID: itemID,
		TopN:   topN,
		Params: make(map[string]any),
	}
}

// Param 读取请求参数，不存在时返回 nil。
func (rctx *RecommendContext) Param(key string) any {
	if rctx == nil || rctx.Params == nil {
		return nil
	}
	return rctx.Params[key]
}
