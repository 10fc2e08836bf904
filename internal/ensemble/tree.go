package ensemble

import (
	"sort"
)

// A Node represents a splitting decision of the form "x < Threshold ?".
type Node struct {
	// Threshold is the cutoff between the left and right subtrees
	Threshold float64 `json:"threshold"`
	// LeftChild is the index of the node or output for the left subtree
	LeftChild int `json:"left_child"`
	// LeftIsLeaf indicates whether LeftChild indexes Outputs
	LeftIsLeaf bool `json:"left_is_leaf"`
	// RightChild is the index of the node or output for the right subtree
	RightChild int `json:"right_child"`
	// RightIsLeaf indicates whether RightChild indexes Outputs
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree is a binary classifier over a single feature. Nodes is empty when
// the whole tree is one leaf.
type Tree struct {
	Nodes   []Node    `json:"nodes"`
	Outputs []float64 `json:"outputs"`
	// Depth is the maximum depth of any leaf in the tree
	Depth int `json:"depth"`
}

// Bin drops a value down the tree and returns the index of the output it ends up in.
func (t *Tree) Bin(x float64) int {
	if len(t.Nodes) == 0 {
		return 0
	}
	cur := t.Nodes[0]
	for {
		if x < cur.Threshold {
			if cur.LeftIsLeaf {
				return cur.LeftChild
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return cur.RightChild
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
}

// Predict returns the class of x.
func (t *Tree) Predict(x float64) bool {
	return t.Outputs[t.Bin(x)] >= 0.5
}

// Fit grows a Gini-impurity tree on (x, y) no deeper than maxDepth. Splits
// sit halfway between adjacent distinct values; a node only splits when that
// strictly lowers impurity. Leaves predict the majority class, false on ties.
func Fit(x []float64, y []bool, maxDepth int) Tree {
	b := &builder{x: x, y: y, maxDepth: maxDepth}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	b.grow(idx, 0)
	return b.tree
}

type builder struct {
	x        []float64
	y        []bool
	maxDepth int
	tree     Tree
}

func (b *builder) leaf(idx []int, depth int) (int, bool) {
	pos := 0
	for _, i := range idx {
		if b.y[i] {
			pos++
		}
	}
	out := 0.0
	if pos > len(idx)-pos {
		out = 1
	}
	b.tree.Outputs = append(b.tree.Outputs, out)
	if depth > b.tree.Depth {
		b.tree.Depth = depth
	}
	return len(b.tree.Outputs) - 1, true
}

func (b *builder) grow(idx []int, depth int) (int, bool) {
	if depth >= b.maxDepth {
		return b.leaf(idx, depth)
	}
	threshold, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(idx, depth)
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	at := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Threshold: threshold})
	lc, ll := b.grow(left, depth+1)
	rc, rl := b.grow(right, depth+1)
	b.tree.Nodes[at].LeftChild, b.tree.Nodes[at].LeftIsLeaf = lc, ll
	b.tree.Nodes[at].RightChild, b.tree.Nodes[at].RightIsLeaf = rc, rl
	return at, false
}

func (b *builder) bestSplit(idx []int) (float64, bool) {
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]] < b.x[sorted[j]] })

	total := len(sorted)
	totalPos := 0
	for _, i := range sorted {
		if b.y[i] {
			totalPos++
		}
	}
	best := gini(totalPos, total)
	if best == 0 {
		return 0, false
	}

	var threshold float64
	found := false
	leftPos := 0
	for k := 0; k < total-1; k++ {
		if b.y[sorted[k]] {
			leftPos++
		}
		lo, hi := b.x[sorted[k]], b.x[sorted[k+1]]
		if lo == hi {
			continue
		}
		nl, nr := k+1, total-k-1
		g := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(totalPos-leftPos, nr)) / float64(total)
		if g < best {
			best = g
			threshold = lo + (hi-lo)/2
			found = true
		}
	}
	return threshold, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
