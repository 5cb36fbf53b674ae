package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	// Splits between feature values closer than this are not considered.
	featureThreshold = 1e-7
	// Nodes whose target variance is at or below this become leaves.
	impurityEpsilon = 1e-12
)

// RegressionTree is a CART regression tree grown on squared error. Nodes are
// stored in pre-order: a split node's left child follows it directly.
type RegressionTree struct {
	maxDepth       int
	minSamplesLeaf int
	seed           int64
	featureNames   []string
	nodes          []TreeNode
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
	IsLeaf     bool    `json:"is_leaf"`
}

func NewRegressionTree(maxDepth int, seed int64) *RegressionTree {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &RegressionTree{maxDepth: maxDepth, minSamplesLeaf: 1, seed: seed}
}

func (dt *RegressionTree) Fit(features [][]float64, targets []float64, featureNames []string) error {
	if err := validateTrainingSet(features, targets, featureNames); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(dt.seed))
	grower := treeGrower{
		features:       features,
		maxDepth:       dt.maxDepth,
		minSamplesLeaf: dt.minSamplesLeaf,
		rng:            rng,
	}
	dt.nodes = grower.grow(targets)
	dt.featureNames = append([]string(nil), featureNames...)
	return nil
}

func (dt *RegressionTree) Predict(features []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, ErrNotTrained
	}
	if len(dt.featureNames) > 0 && len(features) != len(dt.featureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(dt.featureNames))
	}
	return evaluateNodes(dt.nodes, features)
}

func (dt *RegressionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	return writeArtifact(path, &artifact{
		Type:         RegressionTreeType,
		FeatureNames: dt.featureNames,
		Config:       BoostingConfig{MaxDepth: dt.maxDepth, MinSamplesLeaf: dt.minSamplesLeaf, Seed: dt.seed},
		Trees:        [][]TreeNode{dt.nodes},
		SavedAt:      time.Now().UTC(),
	})
}

func (dt *RegressionTree) Load(path string) error {
	a, err := readArtifact(path)
	if err != nil {
		return err
	}
	if a.Type != RegressionTreeType {
		return fmt.Errorf("%w: artifact holds %q", ErrUnsupportedModel, a.Type)
	}
	if len(a.Trees) != 1 {
		return errors.New("regression tree artifact must hold exactly one tree")
	}
	if err := validateNodes(a.Trees[0]); err != nil {
		return err
	}
	dt.maxDepth = a.Config.MaxDepth
	dt.minSamplesLeaf = a.Config.MinSamplesLeaf
	dt.seed = a.Config.Seed
	dt.featureNames = a.FeatureNames
	dt.nodes = a.Trees[0]
	return nil
}

func (dt *RegressionTree) Describe() ModelInfo {
	return ModelInfo{
		Type:         RegressionTreeType,
		FeatureNames: append([]string(nil), dt.featureNames...),
		MaxDepth:     dt.maxDepth,
		Seed:         dt.seed,
		Nodes:        len(dt.nodes),
	}
}

// treeGrower builds one tree over a fixed feature matrix. The rng decides the
// order features are scanned in at each node, which only matters for ties.
type treeGrower struct {
	features       [][]float64
	maxDepth       int
	minSamplesLeaf int
	rng            *rand.Rand
}

func (g *treeGrower) grow(targets []float64) []TreeNode {
	rows := make([]int, len(targets))
	for i := range rows {
		rows[i] = i
	}
	return g.buildNode(targets, rows, 0)
}

func (g *treeGrower) buildNode(targets []float64, rows []int, depth int) []TreeNode {
	value, impurity := meanAndVariance(targets, rows)
	leaf := []TreeNode{{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      value,
		Samples:    len(rows),
		IsLeaf:     true,
	}}
	if depth >= g.maxDepth || len(rows) < 2*g.minSamplesLeaf || impurity <= impurityEpsilon {
		return leaf
	}

	bestFeature, threshold, ok := g.findBestSplit(targets, rows)
	if !ok {
		return leaf
	}

	leftRows, rightRows := splitRows(g.features, rows, bestFeature, threshold)
	if len(leftRows) == 0 || len(rightRows) == 0 {
		return leaf
	}

	leftNodes := g.buildNode(targets, leftRows, depth+1)
	rightNodes := g.buildNode(targets, rightRows, depth+1)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      value,
		Samples:    len(rows),
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, offsetNodes(leftNodes, 1)...)
	nodes = append(nodes, offsetNodes(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// findBestSplit scans every feature for the threshold that maximizes the
// reduction in squared error. Thresholds sit midway between distinct values.
func (g *treeGrower) findBestSplit(targets []float64, rows []int) (int, float64, bool) {
	featureCount := len(g.features[rows[0]])
	bestFeature := -1
	bestThreshold := 0.0
	bestProxy := math.Inf(-1)

	var total float64
	for _, r := range rows {
		total += targets[r]
	}
	n := len(rows)
	sorted := make([]int, n)

	for _, featureIdx := range g.rng.Perm(featureCount) {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.features[sorted[a]][featureIdx] < g.features[sorted[b]][featureIdx]
		})

		var leftSum float64
		for i := 0; i < n-1; i++ {
			leftSum += targets[sorted[i]]
			leftCount := i + 1
			rightCount := n - leftCount
			if leftCount < g.minSamplesLeaf {
				continue
			}
			if rightCount < g.minSamplesLeaf {
				break
			}
			current := g.features[sorted[i]][featureIdx]
			next := g.features[sorted[i+1]][featureIdx]
			if next <= current+featureThreshold {
				continue
			}
			rightSum := total - leftSum
			proxy := leftSum*leftSum/float64(leftCount) + rightSum*rightSum/float64(rightCount)
			if proxy > bestProxy {
				bestProxy = proxy
				bestFeature = featureIdx
				bestThreshold = midpoint(current, next)
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func midpoint(a, b float64) float64 {
	mid := a/2 + b/2
	if mid == b || math.IsInf(mid, 0) {
		return a
	}
	return mid
}

func splitRows(features [][]float64, rows []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if features[r][featureIdx] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func offsetNodes(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
	return nodes
}

func meanAndVariance(targets []float64, rows []int) (float64, float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range rows {
		sum += targets[r]
	}
	mean := sum / float64(len(rows))
	var sq float64
	for _, r := range rows {
		d := targets[r] - mean
		sq += d * d
	}
	return mean, sq / float64(len(rows))
}

func evaluateNodes(nodes []TreeNode, features []float64) (float64, error) {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func validateNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.LeftChild <= i || node.RightChild <= i || node.LeftChild >= len(nodes) || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d has invalid children", i)
		}
	}
	return nil
}

func validateTrainingSet(features [][]float64, targets []float64, featureNames []string) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("feature vectors are empty")
	}
	if len(featureNames) != width {
		return fmt.Errorf("%w: %d names for %d columns", ErrFeatureMismatch, len(featureNames), width)
	}
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				return fmt.Errorf("row %d feature %q is missing; impute before fitting", i, featureNames[j])
			}
		}
		if math.IsNaN(targets[i]) {
			return fmt.Errorf("row %d target is missing", i)
		}
	}
	return nil
}
