package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/simrec/pipeline"
)

// 使用配置驱动的 Pipeline 时，需在入口处 import _ "github.com/rushteam/simrec/config/builders"
// 以触发内置 Node（recall.similar、filter、rerank.sort、rerank.topn、catalog.enrich）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 与运行期依赖构建 Node。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序）。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回基于当前注册表的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	if len(cfg.Pipeline.Nodes) == 0 {
		return fmt.Errorf("pipeline %q has no nodes", cfg.Pipeline.Name)
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			types := make([]string, 0, len(defaultBuilders))
			for t := range defaultBuilders {
				types = append(types, t)
			}
			sort.Strings(types)
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, types)
		}
	}
	return nil
}

// BuildPipeline 校验并以默认注册表构建 Pipeline。
func BuildPipeline(cfg *pipeline.Config, deps pipeline.Dependencies) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory(), deps)
}

// PipelineFactory 从 Pipeline 配置文件构建引擎使用的 Pipeline 工厂；path 为空时返回 nil。
func PipelineFactory(path string) (func(pipeline.Dependencies) (*pipeline.Pipeline, error), error) {
	if path == "" {
		return nil, nil
	}
	pc, err := pipeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}
	if err := ValidatePipelineConfig(pc); err != nil {
		return nil, err
	}
	return func(deps pipeline.Dependencies) (*pipeline.Pipeline, error) {
		return pc.BuildPipeline(DefaultFactory(), deps)
	}, nil
}
