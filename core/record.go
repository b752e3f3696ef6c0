package core

import "context"

// Record 是一条物品元数据记录，进入构建流程后不可变。
// 列表字段为逗号分隔字符串；缺失字段为空串。
type Record struct {
	MovieID             int64
	Title               string
	Genres              string
	Cast                string
	Director            string
	ProductionCompanies string
	ProductionCountries string
	SpokenLanguages     string
	Overview            string
	Tagline             string
	Keywords            string
}

// Metadata 是查询结果中回填的只读元数据。
type Metadata struct {
	ItemID int64  `json:"movie_id"`
	Title  string `json:"title"`
	Genres string `json:"genres"`
}

// MetadataReader 按物品 ID 批量读取元数据，由 catalog.Catalog 实现。
// 不存在的 ID 不出现在结果中。
type MetadataReader interface {
	BatchGetMetadata(ctx context.Context, ids []int64) (map[int64]Metadata, error)
}
