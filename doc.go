// Package simrec 是一个基于内容的相似物品检索工具包。
//
// 设计要点：
// - 构建：元数据 → 文本 TF-IDF+SVD 与类别 multi-hot → 联合 SVD → 单位向量 → IVF 索引
// - 查询：Pipeline-first，Node 串联（Recall → Filter → ReRank → PostProcess）
// - 降级：加速设备不可用时自动回退到 CPU 索引
package simrec

import (
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/service"
)

// 轻量 facade：便于用户直接 import "simrec" 使用核心抽象。
type (
	Engine          = service.Engine
	Options         = service.Options
	Result          = service.Result
	Recommendation  = service.Recommendation
	RecommendOption = service.RecommendOption
	Pipeline        = pipeline.Pipeline
	Node            = pipeline.Node
	Kind            = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

var (
	// Build 构建引擎
	Build = service.Build
	// Open 从产物目录加载引擎
	Open = service.Open
	// DefaultOptions 默认引擎选项
	DefaultOptions = service.DefaultOptions
)
