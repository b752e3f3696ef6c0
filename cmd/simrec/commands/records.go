package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/core"
)

// idColumns 依次尝试的电影 ID 列名
var idColumns = []string{"movie_id", "id"}

// LoadRecords 读取 TMDB 风格的 CSV 文件。
func LoadRecords(path string) ([]core.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()
	return DecodeRecords(f)
}

// DecodeRecords 按表头解析记录；除 ID 外的列缺失时取空串，ID 为空或无法解析的行报错。
func DecodeRecords(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	idx := catalog.HeaderIndex(header)
	idCol := ""
	for _, c := range idColumns {
		if _, ok := idx[c]; ok {
			idCol = c
			break
		}
	}
	if idCol == "" {
		return nil, fmt.Errorf("missing id column (want one of %v)", idColumns)
	}

	var out []core.Record
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(catalog.Field(rec, idx, idCol)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, idCol, err)
		}
		field := func(col string) string { return catalog.Field(rec, idx, col) }
		out = append(out, core.Record{
			MovieID:             id,
			Title:               field("title"),
			Genres:              field("genres"),
			Cast:                field("cast"),
			Director:            field("director"),
			ProductionCompanies: field("production_companies"),
			ProductionCountries: field("production_countries"),
			SpokenLanguages:     field("spoken_languages"),
			Overview:            field("overview"),
			Tagline:             field("tagline"),
			Keywords:            field("keywords"),
		})
	}
	return out, nil
}
