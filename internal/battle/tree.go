package battle

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// TreeOptions controls decision tree growth. Zero MaxDepth grows until
// leaves are pure.
type TreeOptions struct {
	MaxDepth       int
	MinSamplesLeaf int
	Seed           int64
}

// Node is a tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Positive  int     `json:"positive"`
	Total     int     `json:"total"`
}

// DecisionTree is a binary CART classifier split on Gini impurity
type DecisionTree struct {
	Features int    `json:"features"`
	Nodes    []Node `json:"nodes"`
}

const impurityEpsilon = 1e-12

type treeBuilder struct {
	x    [][]float64
	y    []bool
	opts TreeOptions
	rng  *rand.Rand
	tree *DecisionTree
}

// FitTree grows a tree on rows x with labels y. Candidate features are
// visited in a seeded random order, so equal-gain splits resolve the same
// way for the same seed.
func FitTree(x [][]float64, y []bool, opts TreeOptions) (*DecisionTree, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit tree: no rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit tree: %d rows for %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("fit tree: row %d has %d features, want %d", i, len(row), width)
		}
	}
	if opts.MinSamplesLeaf < 1 {
		opts.MinSamplesLeaf = 1
	}

	b := &treeBuilder{
		x:    x,
		y:    y,
		opts: opts,
		rng:  rand.New(rand.NewPCG(uint64(opts.Seed), 0x7265)),
		tree: &DecisionTree{Features: width},
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	b.grow(idx, 0)
	return b.tree, nil
}

func gini(pos, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(pos) / float64(total)
	return 2 * p * (1 - p)
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		if b.y[i] {
			pos++
		}
	}
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1, Positive: pos, Total: len(idx)})

	if pos == 0 || pos == len(idx) {
		return id
	}
	if b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth {
		return id
	}
	if len(idx) < 2*b.opts.MinSamplesLeaf {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	n := &b.tree.Nodes[id]
	n.Feature = feature
	n.Threshold = threshold
	n.Left = l
	n.Right = r
	return id
}

func (b *treeBuilder) bestSplit(idx []int, pos int) (int, float64, bool) {
	n := len(idx)
	best := gini(pos, n) - impurityEpsilon
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	for _, f := range b.rng.Perm(b.tree.Features) {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			va, vc := b.x[sorted[a]][f], b.x[sorted[c]][f]
			if va != vc {
				return va < vc
			}
			return sorted[a] < sorted[c]
		})

		leftPos := 0
		for k := 0; k < n-1; k++ {
			if b.y[sorted[k]] {
				leftPos++
			}
			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < b.opts.MinSamplesLeaf || nr < b.opts.MinSamplesLeaf {
				continue
			}
			impurity := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)) / float64(n)
			if impurity < best {
				best = impurity
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				// adjacent floats round the midpoint up to next
				if bestThreshold >= next {
					bestThreshold = cur
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// ProbaPositive returns the share of positive training labels in the leaf x falls into
func (t *DecisionTree) ProbaPositive(x []float64) (float64, error) {
	if len(x) != t.Features {
		return 0, fmt.Errorf("%w: %d features, tree expects %d", ErrSchemaMismatch, len(x), t.Features)
	}
	if len(t.Nodes) == 0 {
		return 0, fmt.Errorf("empty tree")
	}
	n := t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	if n.Total == 0 {
		return 0, fmt.Errorf("tree: empty leaf")
	}
	return float64(n.Positive) / float64(n.Total), nil
}

// Depth is the length of the longest root-to-leaf path
func (t *DecisionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

func (t *DecisionTree) Leaves() int {
	count := 0
	for _, n := range t.Nodes {
		if n.Feature < 0 {
			count++
		}
	}
	return count
}

func (t *DecisionTree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree: no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			if n.Total <= 0 || n.Positive < 0 || n.Positive > n.Total {
				return fmt.Errorf("tree: leaf %d has invalid counts", i)
			}
			continue
		}
		if n.Feature >= t.Features {
			return fmt.Errorf("tree: node %d splits on feature %d of %d", i, n.Feature, t.Features)
		}
		// children are always appended after their parent
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("tree: node %d has invalid children", i)
		}
	}
	return nil
}
