package core

import "github.com/rushteam/simrec/pkg/utils"

// Item 是查询链路中的统一承载结构：相似度、距离、元信息、标签。
// Score 为相似度 1 - d²/2；Labels 用于解释（召回来源、过滤原因等）。
type Item struct {
	ID       int64
	Row      int64   // 在 ANN 索引中的行号
	Distance float64 // 与查询向量的平方 L2 距离
	Score    float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Row:    -1,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaString 读取字符串类型的元信息，不存在时返回空串。
func (it *Item) MetaString(key string) string {
	if it.Meta == nil {
		return ""
	}
	s, _ := it.Meta[key].(string)
	return s
}
