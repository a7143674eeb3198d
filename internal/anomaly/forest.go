package anomaly

import (
	"math"
	"math/rand"
)

// Tunables of the default detector. The tree count matches the
// original deployment of this feature; the subsample size and the 0.5
// score threshold come from Liu, Ting and Zhou's isolation forest
// paper.
const (
	DefaultTrees      = 150
	DefaultSampleSize = 256
	DefaultSeed       = 42

	// ScoreThreshold separates outliers from inliers. A score of 0.5
	// is what a point indistinguishable from the sample receives.
	ScoreThreshold = 0.5
)

// Detector assigns an anomaly score in (0, 1] to every row of a
// numeric matrix. Higher means easier to isolate, which means more
// anomalous.
type Detector interface {
	Scores(data [][]float64) []float64
}

// IsolationForest isolates points with randomized binary trees. Rows
// that separate from the rest in few splits receive short average
// path lengths and therefore high scores. The zero value uses the
// defaults; the seed makes repeated runs identical.
type IsolationForest struct {
	Trees      int
	SampleSize int
	Seed       int64
}

// NewIsolationForest returns a forest with the default tuning.
func NewIsolationForest() *IsolationForest {
	return &IsolationForest{
		Trees:      DefaultTrees,
		SampleSize: DefaultSampleSize,
		Seed:       DefaultSeed,
	}
}

// Scores fits the forest on subsamples of data and scores every row.
// The result index matches the input index.
func (f *IsolationForest) Scores(data [][]float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}

	trees := f.Trees
	if trees <= 0 {
		trees = DefaultTrees
	}
	sample := f.SampleSize
	if sample <= 0 {
		sample = DefaultSampleSize
	}
	if sample > n {
		sample = n
	}
	if sample < 2 {
		// A single point cannot be split. Every row is as anomalous
		// as every other.
		scores := make([]float64, n)
		for i := range scores {
			scores[i] = 0.5
		}
		return scores
	}

	rng := rand.New(rand.NewSource(f.Seed))
	limit := int(math.Ceil(math.Log2(float64(sample))))

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	sums := make([]float64, n)
	for t := 0; t < trees; t++ {
		// Partial Fisher-Yates draws the subsample without
		// replacement.
		for i := 0; i < sample; i++ {
			j := i + rng.Intn(n-i)
			indices[i], indices[j] = indices[j], indices[i]
		}
		root := buildTree(data, indices[:sample], 0, limit, rng)
		for i, row := range data {
			sums[i] += pathLength(root, row, 0)
		}
	}

	norm := averagePathLength(float64(sample))
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = math.Pow(2, -sums[i]/float64(trees)/norm)
	}
	return scores
}

// treeNode is one node of an isolation tree. Leaves have a nil left
// child and remember how many sampled rows they absorbed.
type treeNode struct {
	feature int
	split   float64
	left    *treeNode
	right   *treeNode
	size    int
}

// buildTree grows one isolation tree over the rows named by idx,
// partitioning idx in place. Growth stops at the height limit or when
// a node cannot be split further.
func buildTree(data [][]float64, idx []int, depth, limit int, rng *rand.Rand) *treeNode {
	if depth >= limit || len(idx) <= 1 {
		return &treeNode{feature: -1, size: len(idx)}
	}

	feature, lo, hi, ok := pickSplit(data, idx, rng)
	if !ok {
		return &treeNode{feature: -1, size: len(idx)}
	}
	split := lo + rng.Float64()*(hi-lo)

	k := 0
	for i, id := range idx {
		if data[id][feature] < split {
			idx[i], idx[k] = idx[k], idx[i]
			k++
		}
	}

	return &treeNode{
		feature: feature,
		split:   split,
		left:    buildTree(data, idx[:k], depth+1, limit, rng),
		right:   buildTree(data, idx[k:], depth+1, limit, rng),
	}
}

// pickSplit chooses a random feature that still varies within the
// node and returns its value range. ok is false when every feature is
// constant, which ends the branch.
func pickSplit(data [][]float64, idx []int, rng *rand.Rand) (feature int, lo, hi float64, ok bool) {
	type span struct {
		feature int
		lo, hi  float64
	}
	width := len(data[idx[0]])
	spans := make([]span, 0, width)
	for q := 0; q < width; q++ {
		qlo, qhi := data[idx[0]][q], data[idx[0]][q]
		for _, id := range idx[1:] {
			v := data[id][q]
			if v < qlo {
				qlo = v
			}
			if v > qhi {
				qhi = v
			}
		}
		if qhi > qlo {
			spans = append(spans, span{feature: q, lo: qlo, hi: qhi})
		}
	}
	if len(spans) == 0 {
		return 0, 0, 0, false
	}
	s := spans[rng.Intn(len(spans))]
	return s.feature, s.lo, s.hi, true
}

// pathLength follows row down the tree. Rows stopped by the height
// limit are credited with the expected depth of the subtree they
// would have grown.
func pathLength(node *treeNode, row []float64, depth float64) float64 {
	if node.left == nil {
		return depth + averagePathLength(float64(node.size))
	}
	if row[node.feature] < node.split {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

const eulerGamma = 0.5772156649015329

// averagePathLength is c(n), the expected depth of an unsuccessful
// search in a binary search tree over n points.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
}
