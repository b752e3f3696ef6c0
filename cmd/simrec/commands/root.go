// Package commands 实现 simrec 命令行：build 构建索引产物，recommend 查询相似电影。
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/simrec/config"
	_ "github.com/rushteam/simrec/config/builders"
	"github.com/rushteam/simrec/pkg/logging"
	"github.com/rushteam/simrec/pkg/metrics"
	"github.com/rushteam/simrec/service"
)

var (
	version = "dev"

	configPath   string
	artifactsDir string
	outputFormat string
	logLevel     string
	metricsFile  string
)

// SetVersion 设置版本号
func SetVersion(v string) { version = v }

// Execute 执行根命令
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simrec",
		Short: "Content-based similar movie recommendations",
		Long: `simrec builds a content-based similarity index over movie metadata
and answers "more like this" queries against it.

Examples:
  simrec build movies.csv
  simrec recommend 603 --top-n 5
  simrec recommend 603 --format json`,
		SilenceUsage: true,
		Version:      version,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if metricsFile == "" {
				return nil
			}
			return metrics.WriteTextfile(metricsFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SIMREC_CONFIG or ./simrec.yaml)")
	cmd.PersistentFlags().StringVar(&artifactsDir, "artifacts", "", "Artifacts directory (overrides artifacts_dir)")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table or json")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides logging.level)")
	cmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file on exit")

	cmd.AddCommand(NewBuildCmd(), NewRecommendCmd())
	return cmd
}

// loadConfig 读取 .env、配置文件与环境变量，并初始化日志。
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if artifactsDir != "" {
		cfg.ArtifactsDir = artifactsDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}

// engineOptions 汇总 CLI 使用的引擎选项；配置了 query.pipeline 时按文件构建 Pipeline。
func engineOptions(cfg *config.Config, logger zerolog.Logger) ([]service.EngineOption, error) {
	eopts := []service.EngineOption{service.WithLogger(logger)}
	factory, err := config.PipelineFactory(cfg.Query.Pipeline)
	if err != nil {
		return nil, err
	}
	if factory != nil {
		eopts = append(eopts, service.WithPipeline(factory))
	}
	return eopts, nil
}

func validateFormat() error {
	switch outputFormat {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q (must be table or json)", outputFormat)
	}
}
