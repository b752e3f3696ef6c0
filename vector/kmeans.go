package vector

import (
	"context"
	"math/rand"
)

// DefaultKMeansIters k-means 默认迭代次数
const DefaultKMeansIters = 20

// 空簇拆分时的扰动幅度
const splitEpsilon = 1.0 / 1024

type parallelFor func(ctx context.Context, n int, fn func(lo, hi int) error) error

// kmeans 训练 IVF 的粗量化中心。
//
// 初始化为种子随机排列的前 k 个样本；分配阶段可并行，更新阶段按样本顺序累加，
// 因此并行与顺序执行得到完全一致的中心。
type kmeans struct {
	dim   int
	k     int
	iters int
	seed  int64
	run   parallelFor
}

func (km *kmeans) train(ctx context.Context, points [][]float32) ([]float32, error) {
	n := len(points)
	if n == 0 || km.k <= 0 {
		return nil, ErrEmptyTrainingSet
	}
	rng := rand.New(rand.NewSource(km.seed))
	perm := rng.Perm(n)
	centroids := make([]float32, km.k*km.dim)
	for c := 0; c < km.k; c++ {
		copy(centroids[c*km.dim:], points[perm[c%n]])
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	next := make([]int, n)
	for it := 0; it < km.iters; it++ {
		if err := km.run(ctx, n, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				next[i], _ = nearestCentroid(points[i], centroids, km.k, km.dim)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		changed := 0
		for i := range next {
			if next[i] != labels[i] {
				changed++
			}
			labels[i] = next[i]
		}
		km.update(points, labels, centroids)
		if changed == 0 {
			break
		}
	}
	return centroids, nil
}

// update 以样本均值更新中心；空簇通过拆分最大簇补齐。
func (km *kmeans) update(points [][]float32, labels []int, centroids []float32) {
	sums := make([]float64, km.k*km.dim)
	counts := make([]int, km.k)
	for i, p := range points {
		c := labels[i]
		counts[c]++
		row := sums[c*km.dim : (c+1)*km.dim]
		for d, x := range p {
			row[d] += float64(x)
		}
	}
	for c := 0; c < km.k; c++ {
		if counts[c] == 0 {
			continue
		}
		inv := 1 / float64(counts[c])
		for d := 0; d < km.dim; d++ {
			centroids[c*km.dim+d] = float32(sums[c*km.dim+d] * inv)
		}
	}

	for c := 0; c < km.k; c++ {
		if counts[c] != 0 {
			continue
		}
		big := 0
		for j := 1; j < km.k; j++ {
			if counts[j] > counts[big] {
				big = j
			}
		}
		if counts[big] < 2 {
			continue
		}
		src := centroids[big*km.dim : (big+1)*km.dim]
		dst := centroids[c*km.dim : (c+1)*km.dim]
		for d := range src {
			if d%2 == 0 {
				dst[d] = src[d] * (1 + splitEpsilon)
				src[d] *= 1 - splitEpsilon
			} else {
				dst[d] = src[d] * (1 - splitEpsilon)
				src[d] *= 1 + splitEpsilon
			}
		}
		counts[c] = counts[big] / 2
		counts[big] -= counts[c]
	}
}

// nearestCentroid 距离相同时取编号最小的中心。
func nearestCentroid(v, centroids []float32, k, dim int) (int, float32) {
	best, bestDist := 0, L2Sqr(v, centroids[:dim])
	for c := 1; c < k; c++ {
		if d := L2Sqr(v, centroids[c*dim:(c+1)*dim]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// sampleTraining 按种子抽取至多 max 个训练样本；max <= 0 或样本不足时返回全部。
func sampleTraining(points [][]float32, max int, seed int64) [][]float32 {
	if max <= 0 || len(points) <= max {
		return points
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(points))[:max]
	out := make([][]float32, max)
	for i, p := range perm {
		out[i] = points[p]
	}
	return out
}
