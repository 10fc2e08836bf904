package ensemble

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// ErrSingleClass is returned when the training labels contain only one class
// and no fold can hold an example of each.
var ErrSingleClass = errors.New("training data has a single class")

// DefaultMaxDepth bounds the depth search.
const DefaultMaxDepth = 10

// Selection is the outcome of the depth search for one feature column.
type Selection struct {
	Depth int `json:"depth"`
	// Folds is the cross-validation fold count; 1 means no validation ran.
	Folds int `json:"folds"`
	// Accuracy[d-1] is the mean held-out accuracy at depth d.
	Accuracy []float64 `json:"accuracy,omitempty"`
}

// FoldCount is the size of the smaller label class.
func FoldCount(y []bool) int {
	pos := 0
	for _, v := range y {
		if v {
			pos++
		}
	}
	return min(pos, len(y)-pos)
}

// assignFolds puts the i-th example of each class into fold i mod k.
func assignFolds(y []bool, k int) []int {
	folds := make([]int, len(y))
	var pos, neg int
	for i, v := range y {
		if v {
			folds[i] = pos % k
			pos++
		} else {
			folds[i] = neg % k
			neg++
		}
	}
	return folds
}

// CrossValidate returns the mean held-out accuracy of depth-limited trees
// over k stratified folds.
func CrossValidate(x []float64, y []bool, depth, k int) (float64, error) {
	if k < 2 {
		return 0, fmt.Errorf("ensemble: need at least 2 folds, got %d", k)
	}
	folds := assignFolds(y, k)
	scores := make([]float64, 0, k)
	for f := 0; f < k; f++ {
		var trainX []float64
		var trainY []bool
		var testIdx []int
		for i := range x {
			if folds[i] == f {
				testIdx = append(testIdx, i)
				continue
			}
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		}
		if len(testIdx) == 0 {
			continue
		}
		tree := Fit(trainX, trainY, depth)
		correct := 0
		for _, i := range testIdx {
			if tree.Predict(x[i]) == y[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(testIdx)))
	}
	return stats.Mean(scores)
}

// SelectDepth picks the depth in [1, maxDepth] with the best cross-validated
// accuracy, the shallowest on ties. The fold count is the minority class
// size; with a single minority example there is nothing to hold out and
// depth 1 is chosen.
func SelectDepth(x []float64, y []bool, maxDepth int) (Selection, error) {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	k := FoldCount(y)
	switch k {
	case 0:
		return Selection{}, ErrSingleClass
	case 1:
		return Selection{Depth: 1, Folds: 1}, nil
	}

	sel := Selection{Folds: k, Accuracy: make([]float64, maxDepth)}
	bestAcc := -1.0
	for d := 1; d <= maxDepth; d++ {
		acc, err := CrossValidate(x, y, d, k)
		if err != nil {
			return Selection{}, err
		}
		sel.Accuracy[d-1] = acc
		if acc > bestAcc {
			bestAcc = acc
			sel.Depth = d
		}
	}
	return sel, nil
}
