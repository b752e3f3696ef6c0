package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/pkg/utils"
)

// EnrichNode 为候选回填标题与类型（Meta["title"]、Meta["genres"]）。
// 缺失元数据的候选保留，字段为空串。
type EnrichNode struct {
	Reader core.MetadataReader
	Logger zerolog.Logger
}

func (n *EnrichNode) Name() string { return "catalog.enrich" }

func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Reader == nil || len(items) == 0 {
		return items, nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, done := it.Meta["title"]; !done {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) == 0 {
		return items, nil
	}
	metas, err := n.Reader.BatchGetMetadata(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if _, done := it.Meta["title"]; done {
			continue
		}
		m, ok := metas[it.ID]
		if !ok {
			n.Logger.Debug().Int64("item_id", it.ID).Msg("metadata missing")
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta["title"] = m.Title
		it.Meta["genres"] = m.Genres
		it.PutLabel("enriched", utils.Label{Value: "catalog", Source: "enrich"})
	}
	return items, nil
}
