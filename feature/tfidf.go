package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/rushteam/simrec/core"
)

// DefaultMaxFeatures 每个文本字段词表的默认上限
const DefaultMaxFeatures = 10000

// TFIDFVectorizer 将文本列转换为行 L2 归一化的 TF-IDF 稀疏矩阵。
//
// 词表：长度 >= 2 的词元，去除英文停用词，按语料总词频取前 MaxFeatures 个
// （词频相同按字典序），列按字典序排列。
// IDF 采用平滑形式 ln((1+n)/(1+df)) + 1。
type TFIDFVectorizer struct {
	MaxFeatures int       `json:"max_features"`
	StopWords   bool      `json:"stop_words"`
	Terms       []string  `json:"terms"`
	IDF         []float64 `json:"idf"`
	IsFitted    bool      `json:"fitted"`

	vocab map[string]int
}

// NewTFIDFVectorizer 创建向量化器；maxFeatures <= 0 表示不限。
func NewTFIDFVectorizer(maxFeatures int) *TFIDFVectorizer {
	return &TFIDFVectorizer{MaxFeatures: maxFeatures, StopWords: true}
}

// Tokenize 按非单词字符切分，保留长度不小于 2 的小写词元。
func (v *TFIDFVectorizer) Tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !isWordRune(r)
	})
	out := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if v.StopWords && IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Fit 在语料上拟合词表与 IDF。空词表不是错误：Transform 将输出零列矩阵。
func (v *TFIDFVectorizer) Fit(docs []string) error {
	if v.IsFitted {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeFailedPrecondition, "tfidf: vectorizer already fitted")
	}
	termCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range v.Tokenize(doc) {
			termCount[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(termCount))
	for t := range termCount {
		terms = append(terms, t)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			ci, cj := termCount[terms[i]], termCount[terms[j]]
			if ci != cj {
				return ci > cj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	v.Terms = terms
	v.IDF = idf
	v.IsFitted = true
	v.buildVocab()
	return nil
}

func (v *TFIDFVectorizer) buildVocab() {
	v.vocab = make(map[string]int, len(v.Terms))
	for i, t := range v.Terms {
		v.vocab[t] = i
	}
}

// UnmarshalJSON 反序列化后重建词表索引。
func (v *TFIDFVectorizer) UnmarshalJSON(data []byte) error {
	type plain TFIDFVectorizer
	if err := json.Unmarshal(data, (*plain)(v)); err != nil {
		return err
	}
	v.buildVocab()
	return nil
}

// VocabSize 词表大小
func (v *TFIDFVectorizer) VocabSize() int { return len(v.Terms) }

// Fitted 是否已拟合
func (v *TFIDFVectorizer) Fitted() bool { return v.IsFitted }

// Transform 计算 TF-IDF；不在词表中的词元被忽略。
func (v *TFIDFVectorizer) Transform(docs []string) (*CSR, error) {
	if !v.Fitted() {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeFailedPrecondition, "tfidf: vectorizer not fitted")
	}
	if v.vocab == nil {
		v.buildVocab()
	}
	if len(v.IDF) != len(v.Terms) {
		return nil, fmt.Errorf("tfidf: idf length %d != vocabulary %d", len(v.IDF), len(v.Terms))
	}

	m := NewCSR(len(v.Terms))
	for _, doc := range docs {
		counts := make(map[int]float64)
		for _, tok := range v.Tokenize(doc) {
			if j, ok := v.vocab[tok]; ok {
				counts[j]++
			}
		}
		cols := make([]int, 0, len(counts))
		for j := range counts {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		vals := make([]float64, len(cols))
		var norm float64
		for p, j := range cols {
			vals[p] = counts[j] * v.IDF[j]
			norm += vals[p] * vals[p]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for p := range vals {
				vals[p] /= norm
			}
		}
		m.AppendRow(cols, vals)
	}
	return m, nil
}

// FitTransform 拟合并转换。
func (v *TFIDFVectorizer) FitTransform(docs []string) (*CSR, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}
