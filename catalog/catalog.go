// Package catalog 维护物品元数据目录（标题、类型）以及行号参照表。
package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/simrec/core"
)

// KeyPrefix 元数据在 Store 中的 key 前缀
const KeyPrefix = "item:"

// Key 返回物品元数据的 key
func Key(itemID int64) string {
	return KeyPrefix + strconv.FormatInt(itemID, 10)
}

// Catalog 是构建阶段写入、查询阶段只读的元数据目录。
type Catalog struct {
	store core.Store
}

var _ core.MetadataReader = (*Catalog)(nil)

func New(store core.Store) *Catalog {
	return &Catalog{store: store}
}

// Store 返回底层存储
func (c *Catalog) Store() core.Store { return c.store }

// Put 批量写入元数据。
func (c *Catalog) Put(ctx context.Context, metas []core.Metadata) error {
	if len(metas) == 0 {
		return nil
	}
	kvs := make(map[string][]byte, len(metas))
	for _, m := range metas {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal metadata %d: %w", m.ItemID, err)
		}
		kvs[Key(m.ItemID)] = data
	}
	return c.store.BatchSet(ctx, kvs)
}

// PutRecords 从记录中提取标题与类型写入目录。
func (c *Catalog) PutRecords(ctx context.Context, recs []core.Record) error {
	metas := make([]core.Metadata, len(recs))
	for i, r := range recs {
		metas[i] = core.Metadata{ItemID: r.MovieID, Title: r.Title, Genres: r.Genres}
	}
	return c.Put(ctx, metas)
}

// Get 读取单个物品的元数据；不存在时返回 ErrMetadataNotFound。
func (c *Catalog) Get(ctx context.Context, itemID int64) (core.Metadata, error) {
	data, err := c.store.Get(ctx, Key(itemID))
	if core.IsStoreNotFound(err) {
		return core.Metadata{}, ErrMetadataNotFound
	}
	if err != nil {
		return core.Metadata{}, err
	}
	var m core.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return core.Metadata{}, fmt.Errorf("unmarshal metadata %d: %w", itemID, err)
	}
	return m, nil
}

// BatchGetMetadata 批量读取；不存在的 ID 不出现在结果中。
func (c *Catalog) BatchGetMetadata(ctx context.Context, ids []int64) (map[int64]core.Metadata, error) {
	if len(ids) == 0 {
		return map[int64]core.Metadata{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	raw, err := c.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]core.Metadata, len(raw))
	for i, id := range ids {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var m core.Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal metadata %d: %w", id, err)
		}
		out[id] = m
	}
	return out, nil
}

// ErrMetadataNotFound 元数据不存在
var ErrMetadataNotFound = core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "catalog: metadata not found")
