package forecast

import (
	"math/rand"
	"sort"
)

// Regression tree shared by the ensemble and boosted candidates. Splits
// minimize the sum of squared errors; gains are accumulated per feature for
// the importance ranking.

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (n *treeNode) leaf() bool { return n.left == nil }

type treeParams struct {
	maxDepth int
	minLeaf  int
	// featureSub limits the number of features considered per split;
	// zero means all features.
	featureSub int
}

func growTree(X [][]float64, y []float64, idx []int, depth int, p treeParams, rng *rand.Rand, imp []float64) *treeNode {
	node := &treeNode{value: meanAt(y, idx)}
	if depth >= p.maxDepth || len(idx) < 2*p.minLeaf {
		return node
	}

	bestGain := 0.0
	bestFeat := -1
	bestThresh := 0.0
	for _, f := range splitFeatures(len(X[0]), p.featureSub, rng) {
		gain, thresh, ok := bestSplit(X, y, idx, f, p.minLeaf)
		if ok && gain > bestGain+1e-12 {
			bestGain, bestFeat, bestThresh = gain, f, thresh
		}
	}
	if bestFeat < 0 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][bestFeat] <= bestThresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minLeaf || len(right) < p.minLeaf {
		return node
	}
	if imp != nil {
		imp[bestFeat] += bestGain
	}
	node.feature = bestFeat
	node.threshold = bestThresh
	node.left = growTree(X, y, left, depth+1, p, rng, imp)
	node.right = growTree(X, y, right, depth+1, p, rng, imp)
	return node
}

// bestSplit scans the sorted values of feature f and returns the best SSE
// reduction with its threshold.
func bestSplit(X [][]float64, y []float64, idx []int, f int, minLeaf int) (gain, thresh float64, ok bool) {
	n := len(idx)
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

	var sum, sum2 float64
	for _, i := range order {
		sum += y[i]
		sum2 += y[i] * y[i]
	}
	parent := sum2 - sum*sum/float64(n)

	var leftSum, leftSum2 float64
	best := 0.0
	for k := 1; k < n; k++ {
		i := order[k-1]
		leftSum += y[i]
		leftSum2 += y[i] * y[i]
		if X[order[k-1]][f] == X[order[k]][f] {
			continue
		}
		if k < minLeaf || n-k < minLeaf {
			continue
		}
		rightSum := sum - leftSum
		rightSum2 := sum2 - leftSum2
		sseLeft := leftSum2 - leftSum*leftSum/float64(k)
		sseRight := rightSum2 - rightSum*rightSum/float64(n-k)
		g := parent - sseLeft - sseRight
		if g > best {
			best = g
			thresh = (X[order[k-1]][f] + X[order[k]][f]) / 2
			ok = true
		}
	}
	return best, thresh, ok
}

func splitFeatures(p, sub int, rng *rand.Rand) []int {
	if sub <= 0 || sub >= p || rng == nil {
		feats := make([]int, p)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	feats := rng.Perm(p)[:sub]
	sort.Ints(feats)
	return feats
}

func predictTree(n *treeNode, row []float64) float64 {
	for !n.leaf() {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}
