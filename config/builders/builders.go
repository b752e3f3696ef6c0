package builders

import (
	"fmt"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/config"
	"github.com/rushteam/simrec/filter"
	"github.com/rushteam/simrec/pipeline"
	"github.com/rushteam/simrec/pkg/conv"
	"github.com/rushteam/simrec/recall"
	"github.com/rushteam/simrec/rerank"
)

func init() {
	config.Register("recall.similar", BuildSimilarNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.sort", BuildSortNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("catalog.enrich", BuildEnrichNode)
}

func BuildSimilarNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	if deps.Similarity == nil {
		return nil, recall.ErrNoSimilarityService
	}
	return &recall.SimilarItems{
		Service: deps.Similarity,
		NProbe:  int(conv.ConfigGetInt64(cfg, "nprobe", 0)),
	}, nil
}

// BuildFilterNode 支持的 filter 类型：
//
//	filters:
//	  - type: self
//	  - type: expr
//	    expr: '"Comedy" in item.genres'
//	    invert: false
func BuildFilterNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "self":
			filters = append(filters, filter.SelfFilter{})
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""), conv.ConfigGet(filterMap, "invert", false))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters, Logger: deps.Logger}, nil
}

func BuildSortNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	return rerank.SimilaritySort{}, nil
}

func BuildTopNNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildDiversityNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	return &rerank.Diversity{MaxPerGenre: int(conv.ConfigGetInt64(cfg, "max_per_genre", 1))}, nil
}

func BuildEnrichNode(cfg map[string]interface{}, deps pipeline.Dependencies) (pipeline.Node, error) {
	if deps.Metadata == nil {
		return nil, fmt.Errorf("catalog.enrich requires a metadata reader")
	}
	return &catalog.EnrichNode{Reader: deps.Metadata, Logger: deps.Logger}, nil
}
