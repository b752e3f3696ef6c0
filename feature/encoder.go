package feature

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/simrec/core"
)

// MultiHotEncoder 多标签编码：每个类别对应一个维度，类别按字典序排列。
// 转换时忽略拟合阶段未出现的类别。
type MultiHotEncoder struct {
	Name     string   `json:"name"`
	Classes  []string `json:"classes"`
	IsFitted bool     `json:"fitted"`

	index map[string]int
}

// NewMultiHotEncoder 创建编码器
func NewMultiHotEncoder(name string) *MultiHotEncoder {
	return &MultiHotEncoder{Name: name}
}

// Fit 收集全部类别。
func (e *MultiHotEncoder) Fit(lists [][]string) error {
	if e.IsFitted {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeFailedPrecondition,
			fmt.Sprintf("encoder %s: already fitted", e.Name))
	}
	set := make(map[string]struct{})
	for _, tags := range lists {
		for _, t := range tags {
			set[t] = struct{}{}
		}
	}
	classes := make([]string, 0, len(set))
	for t := range set {
		classes = append(classes, t)
	}
	sort.Strings(classes)
	e.Classes = classes
	e.IsFitted = true
	e.buildIndex()
	return nil
}

func (e *MultiHotEncoder) buildIndex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// UnmarshalJSON 反序列化后重建类别索引。
func (e *MultiHotEncoder) UnmarshalJSON(data []byte) error {
	type plain MultiHotEncoder
	if err := json.Unmarshal(data, (*plain)(e)); err != nil {
		return err
	}
	e.buildIndex()
	return nil
}

// Width 编码宽度
func (e *MultiHotEncoder) Width() int { return len(e.Classes) }

// EncodeInto 将 tags 编码写入 dst（长度须为 Width）。
func (e *MultiHotEncoder) EncodeInto(dst []float64, tags []string) {
	if e.index == nil {
		e.buildIndex()
	}
	for _, t := range tags {
		if j, ok := e.index[t]; ok {
			dst[j] = 1
		}
	}
}

// Encode 编码单条标签列表。
func (e *MultiHotEncoder) Encode(tags []string) []float64 {
	out := make([]float64, e.Width())
	e.EncodeInto(out, tags)
	return out
}

// CategoricalEncoder 组合类型、语言、国家三个族的多标签编码。
type CategoricalEncoder struct {
	Genres    *MultiHotEncoder `json:"genres"`
	Languages *MultiHotEncoder `json:"languages"`
	Countries *MultiHotEncoder `json:"countries"`
}

// NewCategoricalEncoder 创建类目编码器
func NewCategoricalEncoder() *CategoricalEncoder {
	return &CategoricalEncoder{
		Genres:    NewMultiHotEncoder(FieldGenres),
		Languages: NewMultiHotEncoder(FieldSpokenLanguages),
		Countries: NewMultiHotEncoder(FieldProductionCountries),
	}
}

// Fit 在规范化记录上拟合三个族。
func (c *CategoricalEncoder) Fit(recs []NormalizedRecord) error {
	genres := make([][]string, len(recs))
	langs := make([][]string, len(recs))
	countries := make([][]string, len(recs))
	for i, r := range recs {
		genres[i], langs[i], countries[i] = r.Genres, r.Languages, r.Countries
	}
	if err := c.Genres.Fit(genres); err != nil {
		return err
	}
	if err := c.Languages.Fit(langs); err != nil {
		return err
	}
	return c.Countries.Fit(countries)
}

// Width 三个族的总宽度，拟合后固定。
func (c *CategoricalEncoder) Width() int {
	return c.Genres.Width() + c.Languages.Width() + c.Countries.Width()
}

// Transform 输出 n×Width 的多热矩阵；Width 为 0 时返回 nil。
func (c *CategoricalEncoder) Transform(recs []NormalizedRecord) *mat.Dense {
	w := c.Width()
	if w == 0 || len(recs) == 0 {
		return nil
	}
	gw, lw := c.Genres.Width(), c.Languages.Width()
	out := mat.NewDense(len(recs), w, nil)
	for i, r := range recs {
		row := out.RawRowView(i)
		c.Genres.EncodeInto(row[:gw], r.Genres)
		c.Languages.EncodeInto(row[gw:gw+lw], r.Languages)
		c.Countries.EncodeInto(row[gw+lw:], r.Countries)
	}
	return out
}
