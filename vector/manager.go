package vector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/simrec/pkg/metrics"
)

// 构建策略名称
const (
	StrategyAcceleratedDirect   = "accelerated-direct"
	StrategyAcceleratedTransfer = "accelerated-transfer"
	StrategyCPU                 = "cpu"
)

// ManagerConfig 索引构建配置
type ManagerConfig struct {
	// Accelerated 是否尝试加速设备；关闭时直接走 CPU
	Accelerated bool `koanf:"accelerated"`

	// TempMemory 设备临时内存预算（字节）
	TempMemory int64 `koanf:"temp_memory"`

	// Workers 设备并行度；<= 0 取 GOMAXPROCS
	Workers int `koanf:"workers"`

	// NList/NProbe 加速构建参数
	NList  int `koanf:"nlist"`
	NProbe int `koanf:"nprobe"`

	// CPUNList/CPUNProbe CPU 构建参数
	CPUNList  int `koanf:"cpu_nlist"`
	CPUNProbe int `koanf:"cpu_nprobe"`

	// Indices32 以 32 位存储行号
	Indices32 bool `koanf:"indices_32"`

	// KMeansIters k-means 迭代次数
	KMeansIters int `koanf:"kmeans_iters"`

	// TrainSamplePerList 每个桶的训练样本上限；<= 0 表示使用全部向量
	TrainSamplePerList int `koanf:"train_sample_per_list"`

	// AccelBatch/CPUBatch 填充批大小
	AccelBatch int `koanf:"accel_batch"`
	CPUBatch   int `koanf:"cpu_batch"`

	// WarmupK 加速构建后的预热检索 k；<= 0 关闭预热
	WarmupK int `koanf:"warmup_k"`

	Seed int64 `koanf:"seed"`
}

// DefaultManagerConfig 返回默认构建配置。
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Accelerated:        true,
		TempMemory:         DefaultTempMemory,
		NList:              2048,
		NProbe:             128,
		CPUNList:           1000,
		CPUNProbe:          50,
		Indices32:          true,
		KMeansIters:        DefaultKMeansIters,
		TrainSamplePerList: 256,
		AccelBatch:         50000,
		CPUBatch:           10000,
		WarmupK:            10,
		Seed:               42,
	}
}

// Manager 负责索引的构建、保存与加载。
type Manager struct {
	cfg    ManagerConfig
	device Device
	logger zerolog.Logger
}

// ManagerOption Manager 选项
type ManagerOption func(*Manager)

// WithManagerDevice 指定加速设备（默认按配置创建 ParallelDevice）。
func WithManagerDevice(d Device) ManagerOption {
	return func(m *Manager) { m.device = d }
}

// WithManagerLogger 设置 logger。
func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager 创建 Manager。设备资源在此一次性确定。
func NewManager(cfg ManagerConfig, opts ...ManagerOption) *Manager {
	m := &Manager{cfg: cfg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	if m.device == nil {
		if cfg.Accelerated {
			m.device = NewParallelDevice(Resources{TempMemory: cfg.TempMemory, Workers: cfg.Workers})
		} else {
			m.device = DisabledDevice{}
		}
	}
	return m
}

// Device 返回 Manager 使用的设备
func (m *Manager) Device() Device { return m.device }

func (m *Manager) ivfOptions(nlist, nprobe int) IVFOptions {
	sample := 0
	if m.cfg.TrainSamplePerList > 0 {
		sample = m.cfg.TrainSamplePerList * nlist
	}
	return IVFOptions{
		NList:       nlist,
		NProbe:      nprobe,
		Indices32:   m.cfg.Indices32,
		KMeansIters: m.cfg.KMeansIters,
		TrainSample: sample,
		Seed:        m.cfg.Seed,
	}
}

// Strategies 返回按优先级排列的构建策略；每个策略返回已训练的索引。
func (m *Manager) Strategies(dim int, train [][]float32) []Strategy {
	accel := m.ivfOptions(m.cfg.NList, m.cfg.NProbe)
	logOpt := WithIndexLogger(m.logger)
	var out []Strategy
	if m.cfg.Accelerated {
		out = append(out,
			Strategy{Name: StrategyAcceleratedDirect, Build: func(ctx context.Context) (*IVFFlat, error) {
				if err := m.device.Available(); err != nil {
					return nil, err
				}
				ix := NewIVFFlat(dim, accel, WithDevice(m.device), logOpt)
				if err := ix.Train(ctx, train); err != nil {
					return nil, err
				}
				return ix, nil
			}},
			Strategy{Name: StrategyAcceleratedTransfer, Build: func(ctx context.Context) (*IVFFlat, error) {
				template := NewIVFFlat(dim, accel, logOpt)
				ix, err := template.ToDevice(m.device)
				if err != nil {
					return nil, err
				}
				if err := ix.Train(ctx, train); err != nil {
					return nil, err
				}
				return ix, nil
			}},
		)
	}
	out = append(out, Strategy{Name: StrategyCPU, Build: func(ctx context.Context) (*IVFFlat, error) {
		ix := NewIVFFlat(dim, m.ivfOptions(m.cfg.CPUNList, m.cfg.CPUNProbe), logOpt)
		if err := ix.Train(ctx, train); err != nil {
			return nil, err
		}
		return ix, nil
	}})
	return out
}

// Build 构建、训练、分批填充并（加速时）预热索引。
// 向量按传入顺序获得行号 0..n-1。
func (m *Manager) Build(ctx context.Context, vectors [][]float32) (*IVFFlat, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	dim := len(vectors[0])

	start := time.Now()
	ix, strategy, err := FirstSuccess(ctx, m.logger, m.Strategies(dim, vectors)...)
	if err != nil {
		return nil, err
	}
	metrics.RecordBuildPhase("train", time.Since(start))

	batch := m.cfg.CPUBatch
	if ix.Accelerated() {
		batch = m.cfg.AccelBatch
	}
	if batch <= 0 {
		batch = len(vectors)
	}

	start = time.Now()
	for lo := 0; lo < len(vectors); lo += batch {
		hi := min(lo+batch, len(vectors))
		if err := ix.Add(ctx, vectors[lo:hi]); err != nil {
			return nil, fmt.Errorf("populate batch [%d, %d): %w", lo, hi, err)
		}
		m.logger.Debug().Int("added", hi).Int("total", len(vectors)).Msg("index batch added")
	}
	metrics.RecordBuildPhase("populate", time.Since(start))
	metrics.IndexRows.Set(float64(ix.Ntotal()))

	if ix.Accelerated() && m.cfg.WarmupK > 0 {
		if err := m.warmup(ctx, ix); err != nil {
			return nil, fmt.Errorf("warmup search: %w", err)
		}
	}

	m.logger.Info().
		Str("strategy", strategy).
		Str("backend", ix.Backend()).
		Int64("ntotal", ix.Ntotal()).
		Int("nlist", ix.NList()).
		Int("nprobe", ix.DefaultNProbe()).
		Bool("indices_32", ix.Indices32()).
		Int("batch", batch).
		Msg("index built")
	return ix, nil
}

// warmup 以种子随机的单位向量做一次检索。
func (m *Manager) warmup(ctx context.Context, ix *IVFFlat) error {
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	q := make([]float32, ix.Dim())
	var norm float64
	for i := range q {
		q[i] = float32(rng.NormFloat64())
		norm += float64(q[i]) * float64(q[i])
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range q {
			q[i] *= inv
		}
	}
	_, err := ix.Search(ctx, q, m.cfg.WarmupK)
	return err
}

// Save 保存索引；加速索引先转换为 CPU 表示。
func (m *Manager) Save(ix *IVFFlat, path string) error {
	start := time.Now()
	if err := Save(ix, path); err != nil {
		return err
	}
	metrics.RecordBuildPhase("save", time.Since(start))
	m.logger.Info().Str("path", path).Int64("ntotal", ix.Ntotal()).Msg("index saved")
	return nil
}

// Load 加载 CPU 索引；transfer 为 true 且设备可用时迁移到设备，失败则保留 CPU 索引。
func (m *Manager) Load(path string, transfer bool) (*IVFFlat, error) {
	ix, err := Load(path, WithIndexLogger(m.logger))
	if err != nil {
		return nil, err
	}
	metrics.IndexRows.Set(float64(ix.Ntotal()))
	if transfer {
		moved, err := ix.ToDevice(m.device)
		if err != nil {
			m.logger.Warn().Err(err).Msg("index transfer after load failed, serving from cpu")
		} else {
			ix = moved
		}
	}
	m.logger.Info().Str("path", path).Str("backend", ix.Backend()).Int64("ntotal", ix.Ntotal()).Msg("index loaded")
	return ix, nil
}
