package ensemble

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_lock/internal/similarity"
	"github.com/relabs-tech/gait_lock/internal/spectrum"
)

func TestFitStump(t *testing.T) {
	tree := Fit([]float64{1, 2, 3, 4}, []bool{false, false, true, true}, 1)
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, 2.5, tree.Nodes[0].Threshold)
	assert.Equal(t, 1, tree.Depth)

	assert.False(t, tree.Predict(1))
	assert.False(t, tree.Predict(2.4))
	assert.True(t, tree.Predict(2.5))
	assert.True(t, tree.Predict(10))
}

func TestFitLeafOnly(t *testing.T) {
	tree := Fit([]float64{1, 2, 3}, []bool{true, true, false}, 0)
	assert.Empty(t, tree.Nodes)
	assert.True(t, tree.Predict(-5))

	pure := Fit([]float64{1, 2}, []bool{true, true}, 5)
	assert.Empty(t, pure.Nodes)
	assert.Equal(t, 0, pure.Depth)

	tie := Fit([]float64{1, 1}, []bool{true, false}, 5)
	assert.Empty(t, tie.Nodes)
	assert.False(t, tie.Predict(1))
}

func TestFitDepthTwo(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []bool{false, true, true, false}

	shallow := Fit(x, y, 1)
	deep := Fit(x, y, 2)
	assert.Equal(t, 2, deep.Depth)

	shallowHits := 0
	for i := range x {
		assert.Equal(t, y[i], deep.Predict(x[i]), "x=%v", x[i])
		if shallow.Predict(x[i]) == y[i] {
			shallowHits++
		}
	}
	assert.Equal(t, 3, shallowHits)
}

func TestAssignFolds(t *testing.T) {
	got := assignFolds([]bool{true, false, true, false, true}, 2)
	assert.Equal(t, []int{0, 0, 1, 1, 0}, got)
	assert.Equal(t, 2, FoldCount([]bool{true, false, true, false, true}))
}

func separable() ([]float64, []bool) {
	return []float64{0.9, 0.1, 0.92, 0.2, 0.95, 0.3, 0.97, 0.4},
		[]bool{true, false, true, false, true, false, true, false}
}

func TestSelectDepth(t *testing.T) {
	x, y := separable()
	sel, err := SelectDepth(x, y, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, sel.Folds)
	assert.Equal(t, 1, sel.Depth)
	require.Len(t, sel.Accuracy, 10)
	for _, acc := range sel.Accuracy {
		assert.Equal(t, 1.0, acc)
	}
}

func TestSelectDepthDegenerateFolds(t *testing.T) {
	_, err := SelectDepth([]float64{1, 2, 3}, []bool{true, true, true}, 10)
	assert.ErrorIs(t, err, ErrSingleClass)

	sel, err := SelectDepth([]float64{1, 2, 3}, []bool{true, false, false}, 10)
	require.NoError(t, err)
	assert.Equal(t, Selection{Depth: 1, Folds: 1}, sel)
}

func TestCrossValidateNeedsTwoFolds(t *testing.T) {
	_, err := CrossValidate([]float64{1, 2}, []bool{true, false}, 1, 1)
	assert.Error(t, err)
}

func trainingSet() []Example {
	x, y := separable()
	out := make([]Example, len(x))
	for i := range x {
		out[i] = Example{Features: []float64{x[i], x[i] * 2}, Match: y[i]}
	}
	return out
}

func TestTrainAndPredict(t *testing.T) {
	e, err := Train(trainingSet(), []string{"jaccard", "cossim"}, PerMetric, 10)
	require.NoError(t, err)
	require.Len(t, e.Members, 2)
	assert.Equal(t, "cossim", e.Members[1].Name)
	assert.Equal(t, 8, e.Examples)

	v, err := e.Predict([]float64{0.96, 1.9})
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.Equal(t, 2, v.Yes)

	v, err = e.Predict([]float64{0.15, 0.3})
	require.NoError(t, err)
	assert.False(t, v.Match)

	_, err = e.Predict([]float64{0.1})
	assert.Error(t, err)
}

func TestTrainErrors(t *testing.T) {
	_, err := Train(nil, nil, PerMetric, 3)
	assert.Error(t, err)

	_, err = Train(trainingSet(), []string{"one"}, PerMetric, 3)
	assert.Error(t, err)

	single := []Example{{Features: []float64{1}, Match: true}, {Features: []float64{2}, Match: true}}
	_, err = Train(single, []string{"jaccard"}, PerMetric, 3)
	assert.ErrorIs(t, err, ErrSingleClass)
}

func constantMember(out float64) Member {
	return Member{Tree: Tree{Outputs: []float64{out}}}
}

func TestPredictTieBreak(t *testing.T) {
	tie := &Ensemble{FeatureSize: 1, Members: []Member{constantMember(1), constantMember(0)}}
	v, err := tie.Predict([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 0.5, v.Mean)
	assert.True(t, v.Match)

	minority := &Ensemble{FeatureSize: 1, Members: []Member{constantMember(1), constantMember(0), constantMember(0)}}
	v, err = minority.Predict([]float64{0})
	require.NoError(t, err)
	assert.False(t, v.Match)
}

func TestPredictUntrained(t *testing.T) {
	var e *Ensemble
	_, err := e.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrClassifierNotTrained)
}

func TestSaveLoad(t *testing.T) {
	e, err := Train(trainingSet(), []string{"jaccard", "cossim"}, PerMetric, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, e))
	back, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, e.Members, back.Members)
	for _, feats := range [][]float64{{0.96, 1.9}, {0.15, 0.3}, {0.6, 1.2}} {
		want, _ := e.Predict(feats)
		got, err := back.Predict(feats)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Per_Dimension ")
	require.NoError(t, err)
	assert.Equal(t, PerDimension, m)
	_, err = ParseMode("forest")
	assert.Error(t, err)
}

func profile(label string, mags ...float64) spectrum.Profile {
	freqs := make([]float64, len(mags))
	for i := range freqs {
		freqs[i] = float64(i) / float64(len(mags))
	}
	return spectrum.Profile{Freqs: freqs, Magnitudes: mags, Label: label}
}

func TestFeaturizerPerDimension(t *testing.T) {
	f := Featurizer{Mode: PerDimension, Bins: 3}
	feats, err := f.Features(profile("a", 1, 5, 2, 9), profile("b", 4, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 0}, feats)
	assert.Equal(t, []string{"bin_0", "bin_1", "bin_2"}, f.Names())

	_, err = f.Features(profile("a", 1, 2), profile("b", 1, 2, 3))
	assert.Error(t, err)
}

func TestFeaturizerPairs(t *testing.T) {
	metrics, err := similarity.Lookup(similarity.NameJaccard, similarity.NameMSE)
	require.NoError(t, err)
	f := Featurizer{Mode: PerMetric, Metrics: metrics}
	assert.Equal(t, []string{"jaccard", "msq"}, f.Names())

	profiles := []spectrum.Profile{
		profile("alice", 1, 2, 3),
		profile("alice", 1, 2, 3),
		profile("bob", 3, 2, 1),
	}
	pairs, err := f.Pairs(profiles)
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.True(t, pairs[0].Match)
	assert.Equal(t, []float64{1, 0}, pairs[0].Features)
	assert.False(t, pairs[1].Match)
	assert.False(t, pairs[2].Match)
}

func TestHeldOutAccuracy(t *testing.T) {
	e, err := Train(trainingSet(), []string{"jaccard", "cossim"}, PerMetric, 4)
	require.NoError(t, err)
	acc, ok := e.HeldOutAccuracy()
	require.True(t, ok)
	assert.InDelta(t, 1.0, acc, 1e-9)

	tiny := &Ensemble{Members: []Member{{Selection: Selection{Depth: 1, Folds: 1}}}}
	_, ok = tiny.HeldOutAccuracy()
	assert.False(t, ok)
}

func TestEnsembleFeaturizer(t *testing.T) {
	e, err := Train(trainingSet(), []string{"jaccard", "cossim"}, PerMetric, 4)
	require.NoError(t, err)
	f, err := e.Featurizer()
	require.NoError(t, err)
	assert.Equal(t, []string{"jaccard", "cossim"}, f.Names())

	f, err = (&Ensemble{Mode: PerDimension, FeatureSize: 6}).Featurizer()
	require.NoError(t, err)
	assert.Equal(t, 6, f.Bins)

	_, err = (&Ensemble{Mode: PerMetric, Members: []Member{{Name: "bin_0"}}}).Featurizer()
	assert.Error(t, err)
}
