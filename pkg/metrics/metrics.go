// Package metrics 定义构建与查询链路的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildPhaseDuration 构建各阶段耗时（normalize/embed/fuse/train/populate/save）
	BuildPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simrec_build_phase_duration_seconds",
			Help:    "Duration of index build phases in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"phase"},
	)

	// IndexBackendAttempts 索引构建策略的尝试结果
	IndexBackendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_index_backend_attempts_total",
			Help: "Index construction attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// IndexRows 当前索引中的向量数
	IndexRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simrec_index_rows",
			Help: "Number of vectors held by the loaded index",
		},
	)

	// SearchDuration 单次 ANN 检索耗时
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simrec_search_duration_seconds",
			Help:    "Duration of ANN searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// RecommendRequests 相似推荐请求数（按结果状态）
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simrec_recommend_requests_total",
			Help: "Recommendation requests by result status",
		},
		[]string{"status"},
	)
)

// RecordBuildPhase 记录构建阶段耗时。
func RecordBuildPhase(phase string, duration time.Duration) {
	BuildPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordBackendAttempt 记录一次索引构建策略尝试。
func RecordBackendAttempt(strategy string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	IndexBackendAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordSearch 记录一次检索耗时。
func RecordSearch(backend string, duration time.Duration) {
	SearchDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// WriteTextfile 以 node_exporter textfile 格式写出默认注册表中的指标。
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// RecordRecommend 记录一次推荐请求。
func RecordRecommend(status string) {
	RecommendRequests.WithLabelValues(status).Inc()
}
