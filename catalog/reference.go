package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rushteam/simrec/core"
)

// ReferenceFile 行号参照表文件名
const ReferenceFile = "movie_reference.csv"

var referenceHeader = []string{"row", "movie_id", "title", "genres"}

// Entry 参照表中的一行。Row 为 -1 表示物品没有可检索的向量。
type Entry struct {
	Row    int64
	ItemID int64
	Title  string
	Genres string
}

// Indexed 是否在 ANN 索引中有对应行
func (e Entry) Indexed() bool { return e.Row >= 0 }

// Metadata 返回该行的元数据
func (e Entry) Metadata() core.Metadata {
	return core.Metadata{ItemID: e.ItemID, Title: e.Title, Genres: e.Genres}
}

// BuildReference 按记录顺序分配行号，degenerate[i] 为 true 的记录不占行号。
func BuildReference(recs []core.Record, degenerate []bool) []Entry {
	out := make([]Entry, len(recs))
	var row int64
	for i, r := range recs {
		e := Entry{Row: -1, ItemID: r.MovieID, Title: r.Title, Genres: r.Genres}
		if i >= len(degenerate) || !degenerate[i] {
			e.Row = row
			row++
		}
		out[i] = e
	}
	return out
}

// ValidateReference 校验物品 ID 唯一，且已索引的行号恰好为 0..ntotal-1。
func ValidateReference(entries []Entry, ntotal int64) error {
	seenID := make(map[int64]struct{}, len(entries))
	seenRow := make([]bool, ntotal)
	var indexed int64
	for _, e := range entries {
		if _, dup := seenID[e.ItemID]; dup {
			return invalidReference(fmt.Sprintf("duplicate movie_id %d", e.ItemID))
		}
		seenID[e.ItemID] = struct{}{}
		if !e.Indexed() {
			continue
		}
		if e.Row >= ntotal {
			return invalidReference(fmt.Sprintf("row %d out of range [0, %d)", e.Row, ntotal))
		}
		if seenRow[e.Row] {
			return invalidReference(fmt.Sprintf("duplicate row %d", e.Row))
		}
		seenRow[e.Row] = true
		indexed++
	}
	if indexed != ntotal {
		return invalidReference(fmt.Sprintf("%d indexed rows, index holds %d", indexed, ntotal))
	}
	return nil
}

// WriteReference 写出参照表（tmp + rename）。
func WriteReference(path string, entries []Entry) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create reference: %w", err)
	}
	if err := EncodeReference(f, entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close reference: %w", err)
	}
	return os.Rename(tmp, path)
}

// EncodeReference 以 CSV 写出参照表
func EncodeReference(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(referenceHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			strconv.FormatInt(e.Row, 10),
			strconv.FormatInt(e.ItemID, 10),
			e.Title,
			e.Genres,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadReference 读取参照表。
func ReadReference(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer f.Close()
	return DecodeReference(f)
}

// DecodeReference 解析 CSV 参照表；列按表头定位，title/genres 可缺省。
func DecodeReference(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, invalidReference(fmt.Sprintf("header: %v", err))
	}
	idx := HeaderIndex(header)
	for _, col := range referenceHeader[:2] {
		if _, ok := idx[col]; !ok {
			return nil, invalidReference("missing column " + col)
		}
	}

	var out []Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalidReference(fmt.Sprintf("line %d: %v", line, err))
		}
		row, err := strconv.ParseInt(Field(rec, idx, "row"), 10, 64)
		if err != nil {
			return nil, invalidReference(fmt.Sprintf("line %d: row: %v", line, err))
		}
		id, err := strconv.ParseInt(Field(rec, idx, "movie_id"), 10, 64)
		if err != nil {
			return nil, invalidReference(fmt.Sprintf("line %d: movie_id: %v", line, err))
		}
		out = append(out, Entry{
			Row:    row,
			ItemID: id,
			Title:  Field(rec, idx, "title"),
			Genres: Field(rec, idx, "genres"),
		})
	}
	return out, nil
}

// HeaderIndex 返回列名到下标的映射
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// Field 按列名取值，缺列或越界返回空串
func Field(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func invalidReference(msg string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: reference: "+msg)
}
