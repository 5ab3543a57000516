package surrogate

import "math/rand"

// node is one node of a regression tree: either an internal split or a
// leaf carrying the mean of the training labels that reached it.
type node struct {
	isLeaf     bool
	leafValue  float64
	feature    int
	threshold  float64
	left       *node
	right      *node
}

// tree is a single regression tree grown by recursive binary splitting on
// a bootstrap-resampled, feature-subsampled view of the training data —
// the divergence this introduces across trees is what gives the ensemble
// a non-trivial sigma.
type tree struct {
	root *node
}

const (
	maxDepth        = 6
	minSamplesSplit = 4
)

// fitTree grows one tree from the rows in idx (a bootstrap sample of the
// full training set), considering a random subset of features at each
// split.
func fitTree(X [][]float64, y []float64, idx []int, rng *rand.Rand) *tree {
	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}
	featuresPerSplit := maxInt(1, numFeatures/2)

	return &tree{root: growNode(X, y, idx, 0, numFeatures, featuresPerSplit, rng)}
}

func growNode(X [][]float64, y []float64, idx []int, depth, numFeatures, featuresPerSplit int, rng *rand.Rand) *node {
	if depth >= maxDepth || len(idx) < minSamplesSplit {
		return &node{isLeaf: true, leafValue: meanOf(y, idx)}
	}

	feat, thresh, leftIdx, rightIdx := bestSplit(X, y, idx, numFeatures, featuresPerSplit, rng)
	if feat < 0 || len(leftIdx) == 0 || len(rightIdx) == 0 {
		return &node{isLeaf: true, leafValue: meanOf(y, idx)}
	}

	return &node{
		isLeaf:    false,
		feature:   feat,
		threshold: thresh,
		left:      growNode(X, y, leftIdx, depth+1, numFeatures, featuresPerSplit, rng),
		right:     growNode(X, y, rightIdx, depth+1, numFeatures, featuresPerSplit, rng),
	}
}

// bestSplit searches a random subset of features for the split minimizing
// combined variance of the two child groups.
func bestSplit(X [][]float64, y []float64, idx []int, numFeatures, featuresPerSplit int, rng *rand.Rand) (int, float64, []int, []int) {
	candidates := rng.Perm(numFeatures)
	if featuresPerSplit < len(candidates) {
		candidates = candidates[:featuresPerSplit]
	}

	bestFeat := -1
	bestThresh := 0.0
	bestScore := -1.0
	var bestLeft, bestRight []int

	for _, f := range candidates {
		thresholds := uniqueThresholds(X, idx, f)
		for _, t := range thresholds {
			var left, right []int
			for _, i := range idx {
				if X[i][f] <= t {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			score := varianceReduction(y, idx, left, right)
			if score > bestScore {
				bestScore = score
				bestFeat = f
				bestThresh = t
				bestLeft = left
				bestRight = right
			}
		}
	}

	return bestFeat, bestThresh, bestLeft, bestRight
}

func uniqueThresholds(X [][]float64, idx []int, feature int) []float64 {
	seen := make(map[float64]bool, len(idx))
	var out []float64
	for _, i := range idx {
		v := X[i][feature]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func varianceReduction(y []float64, parent, left, right []int) float64 {
	total := varianceOf(y, parent) * float64(len(parent))
	lv := varianceOf(y, left) * float64(len(left))
	rv := varianceOf(y, right) * float64(len(right))
	return total - lv - rv
}

func meanOf(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func varianceOf(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	m := meanOf(y, idx)
	sum := 0.0
	for _, i := range idx {
		d := y[i] - m
		sum += d * d
	}
	return sum / float64(len(idx))
}

func (t *tree) predict(row []float64) float64 {
	n := t.root
	for !n.isLeaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.leafValue
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
