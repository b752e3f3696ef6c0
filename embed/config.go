// Package embed 将规范化后的物品记录映射到统一的单位向量空间：
// 文本字段逐个做 TF-IDF 与降维，类目字段做多热编码，二者拼接后联合降维。
package embed

import (
	"fmt"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/feature"
)

// Config 向量化配置
type Config struct {
	// Fields 文本字段及拼接顺序
	Fields []string `koanf:"fields" json:"fields"`

	// Weights 文本字段权重；未配置的字段权重为 1
	Weights map[string]float64 `koanf:"weights" json:"weights"`

	// MaxFeatures 每个字段的词表上限
	MaxFeatures int `koanf:"max_features" json:"max_features"`

	// MaxComponents 每个字段块的宽度；有效分量为 min(MaxComponents, vocab/2)
	MaxComponents int `koanf:"max_components" json:"max_components"`

	// FinalDim 融合向量维度
	FinalDim int `koanf:"final_dim" json:"final_dim"`

	// Seed 降维随机种子
	Seed int64 `koanf:"seed" json:"seed"`

	// SVDIters 幂迭代次数
	SVDIters int `koanf:"svd_iters" json:"svd_iters"`

	// ListLimits 列表字段截断上限
	ListLimits map[string]int `koanf:"list_limits" json:"list_limits"`
}

// DefaultFieldWeights 文本字段默认权重
var DefaultFieldWeights = map[string]float64{
	feature.FieldOverview:            2.0,
	feature.FieldTagline:             1.2,
	feature.FieldKeywords:            1.2,
	feature.FieldProductionCompanies: 1.2,
	feature.FieldCast:                2.0,
	feature.FieldDirector:            1.5,
}

// DefaultConfig 返回默认向量化配置。
func DefaultConfig() Config {
	weights := make(map[string]float64, len(DefaultFieldWeights))
	for k, v := range DefaultFieldWeights {
		weights[k] = v
	}
	limits := make(map[string]int, len(feature.DefaultListLimits))
	for k, v := range feature.DefaultListLimits {
		limits[k] = v
	}
	return Config{
		Fields:        append([]string(nil), feature.TextFields...),
		Weights:       weights,
		MaxFeatures:   feature.DefaultMaxFeatures,
		MaxComponents: 100,
		FinalDim:      200,
		Seed:          feature.DefaultSVDSeed,
		SVDIters:      feature.DefaultSVDIters,
		ListLimits:    limits,
	}
}

// Weight 返回字段权重。
func (c Config) Weight(field string) float64 {
	if w, ok := c.Weights[field]; ok {
		return w
	}
	return 1
}

// Validate 校验配置。
func (c Config) Validate() error {
	if len(c.Fields) == 0 {
		return invalid("embed: no text fields configured")
	}
	known := make(map[string]struct{}, len(feature.TextFields))
	for _, f := range feature.TextFields {
		known[f] = struct{}{}
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if _, ok := known[f]; !ok {
			return invalid(fmt.Sprintf("embed: unknown text field %q", f))
		}
		if _, dup := seen[f]; dup {
			return invalid(fmt.Sprintf("embed: duplicate text field %q", f))
		}
		seen[f] = struct{}{}
		if c.Weight(f) <= 0 {
			return invalid(fmt.Sprintf("embed: weight of %q must be positive", f))
		}
	}
	if c.MaxComponents <= 0 {
		return invalid("embed: max_components must be positive")
	}
	if c.FinalDim <= 0 {
		return invalid("embed: final_dim must be positive")
	}
	return nil
}

func invalid(msg string) error {
	return core.NewDomainError(core.ModuleEmbed, core.ErrorCodeInvalidInput, msg)
}
