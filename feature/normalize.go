package feature

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"

	"github.com/rushteam/simrec/core"
)

// 参与文本向量化的字段名
const (
	FieldOverview            = "overview"
	FieldTagline             = "tagline"
	FieldKeywords            = "keywords"
	FieldProductionCompanies = "production_companies"
	FieldCast                = "cast"
	FieldDirector            = "director"
)

// 类目字段名
const (
	FieldGenres              = "genres"
	FieldSpokenLanguages     = "spoken_languages"
	FieldProductionCountries = "production_countries"
)

// TextFields 文本字段的固定顺序，决定融合时各块的拼接顺序。
var TextFields = []string{
	FieldOverview,
	FieldTagline,
	FieldKeywords,
	FieldProductionCompanies,
	FieldCast,
	FieldDirector,
}

// DefaultListLimits 列表字段的截断上限。
var DefaultListLimits = map[string]int{
	FieldCast:                10,
	FieldDirector:            2,
	FieldGenres:              4,
	FieldProductionCompanies: 3,
	FieldProductionCountries: 2,
	FieldSpokenLanguages:     2,
}

// Stemmer 将单个 token 归约为词干。
type Stemmer interface {
	Stem(word string) string
}

// StemmerFunc 函数适配器
type StemmerFunc func(word string) string

func (f StemmerFunc) Stem(word string) string { return f(word) }

// SnowballStemmer 使用 Snowball English 词干算法。
type SnowballStemmer struct{}

func (SnowballStemmer) Stem(word string) string {
	return english.Stem(word, true)
}

// IdentityStemmer 不做词干化。
var IdentityStemmer = StemmerFunc(func(word string) string { return word })

// SplitList 按逗号切分并去除空白项。
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LimitList 保留逗号分隔列表的前 max 项，并以 ", " 重新拼接。
// 空输入返回空串；max <= 0 时不截断。
func LimitList(value string, max int) string {
	items := SplitList(value)
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	return strings.Join(items, ", ")
}

// TextNormalizer 小写化、去标点、分词、词干化。
type TextNormalizer struct {
	Stemmer Stemmer
}

// NewTextNormalizer 创建文本规范化器；stemmer 为 nil 时使用 Snowball。
func NewTextNormalizer(stemmer Stemmer) *TextNormalizer {
	if stemmer == nil {
		stemmer = SnowballStemmer{}
	}
	return &TextNormalizer{Stemmer: stemmer}
}

// Normalize 返回以单个空格连接的词干序列。
func (n *TextNormalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	tokens := strings.Fields(cleaned)
	for i, tok := range tokens {
		tokens[i] = n.Stemmer.Stem(tok)
	}
	return strings.Join(tokens, " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizedRecord 规范化后的记录：文本字段已词干化，类目字段已切分。
type NormalizedRecord struct {
	MovieID   int64
	Text      map[string]string
	Genres    []string
	Languages []string
	Countries []string
}

// NormalizeRecord 对单条记录应用列表截断与文本规范化，不修改输入。
func NormalizeRecord(rec core.Record, limits map[string]int, normalizer *TextNormalizer) NormalizedRecord {
	if limits == nil {
		limits = DefaultListLimits
	}
	cast := LimitList(rec.Cast, limits[FieldCast])
	director := LimitList(rec.Director, limits[FieldDirector])
	companies := LimitList(rec.ProductionCompanies, limits[FieldProductionCompanies])
	genres := LimitList(rec.Genres, limits[FieldGenres])
	countries := LimitList(rec.ProductionCountries, limits[FieldProductionCountries])
	languages := LimitList(rec.SpokenLanguages, limits[FieldSpokenLanguages])

	return NormalizedRecord{
		MovieID: rec.MovieID,
		Text: map[string]string{
			FieldOverview:            normalizer.Normalize(rec.Overview),
			FieldTagline:             normalizer.Normalize(rec.Tagline),
			FieldKeywords:            normalizer.Normalize(rec.Keywords),
			FieldProductionCompanies: normalizer.Normalize(companies),
			FieldCast:                normalizer.Normalize(cast),
			FieldDirector:            normalizer.Normalize(director),
		},
		Genres:    SplitList(genres),
		Languages: SplitList(languages),
		Countries: SplitList(countries),
	}
}

// NormalizeRecords 批量规范化。
func NormalizeRecords(recs []core.Record, limits map[string]int, normalizer *TextNormalizer) []NormalizedRecord {
	out := make([]NormalizedRecord, len(recs))
	for i, rec := range recs {
		out[i] = NormalizeRecord(rec, limits, normalizer)
	}
	return out
}

// Column 抽取某个文本字段的整列。
func Column(recs []NormalizedRecord, field string) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Text[field]
	}
	return out
}
