package logistic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoClassData draws two well-separated Gaussian clusters on a fixed seed:
// class 0 around -2, class 1 around +2.
func twoClassData(n int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		center := -2.0
		if label == 1 {
			center = 2.0
		}
		X.Set(i, 0, center+rng.NormFloat64())
		X.Set(i, 1, center+rng.NormFloat64())
		y.SetVec(i, label)
	}
	return X, y
}

func TestFitSeparatedClasses(t *testing.T) {
	X, y := twoClassData(200, 3)

	clf := New(WithMaxIter(500))
	require.NoError(t, clf.Fit(X, y))
	require.True(t, clf.IsFitted())

	// Separated clusters should classify nearly perfectly.
	score, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)

	// Both coefficients point toward the positive class.
	coefs, err := clf.Coefficients()
	require.NoError(t, err)
	require.Len(t, coefs, 2)
	assert.Greater(t, coefs[0], 0.0)
	assert.Greater(t, coefs[1], 0.0)
}

func TestPredictProbaRange(t *testing.T) {
	X, y := twoClassData(100, 7)

	clf := New(WithMaxIter(500))
	require.NoError(t, clf.Fit(X, y))

	probs, err := clf.PredictProba(X)
	require.NoError(t, err)
	require.Equal(t, 100, probs.Len())
	for i := 0; i < probs.Len(); i++ {
		p := probs.AtVec(i)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}

	// Extreme points get confident probabilities on the right side.
	extreme := mat.NewDense(2, 2, []float64{
		-6, -6,
		6, 6,
	})
	probs, err = clf.PredictProba(extreme)
	require.NoError(t, err)
	assert.Less(t, probs.AtVec(0), 0.1)
	assert.Greater(t, probs.AtVec(1), 0.9)
}

func TestPredictThreshold(t *testing.T) {
	X, y := twoClassData(100, 11)

	clf := New(WithMaxIter(500))
	require.NoError(t, clf.Fit(X, y))

	probs, err := clf.PredictProba(X)
	require.NoError(t, err)
	preds, err := clf.Predict(X)
	require.NoError(t, err)

	for i := 0; i < preds.Len(); i++ {
		want := 0.0
		if probs.AtVec(i) >= 0.5 {
			want = 1.0
		}
		assert.Equal(t, want, preds.AtVec(i), "row %d", i)
	}
}

func TestFitValidation(t *testing.T) {
	clf := New()

	// Non-binary outcome.
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{0, 1, 2})
	assert.Error(t, clf.Fit(X, y))

	// Mismatched rows.
	y2 := mat.NewVecDense(2, []float64{0, 1})
	assert.Error(t, clf.Fit(X, y2))

	// Accessors before Fit.
	_, err := New().PredictProba(X)
	assert.Error(t, err)
	_, err = New().OddsRatios()
	assert.Error(t, err)
	_, err = New().Coefficients()
	assert.Error(t, err)
}

func TestRegularizationShrinksCoefficients(t *testing.T) {
	X, y := twoClassData(200, 13)

	unpenalized := New(WithMaxIter(500))
	require.NoError(t, unpenalized.Fit(X, y))
	penalized := New(WithMaxIter(500), WithC(0.01))
	require.NoError(t, penalized.Fit(X, y))

	cu, _ := unpenalized.Coefficients()
	cp, _ := penalized.Coefficients()

	normU := math.Hypot(cu[0], cu[1])
	normP := math.Hypot(cp[0], cp[1])
	assert.Less(t, normP, normU, "strong L2 penalty should shrink the coefficients")
}

func TestOddsRatios(t *testing.T) {
	X, y := twoClassData(300, 17)

	// A little L2 keeps the well-separated clusters away from quasi-separation,
	// so the information matrix stays invertible.
	clf := New(WithMaxIter(500), WithC(1.0))
	require.NoError(t, clf.Fit(X, y))

	ratios, err := clf.OddsRatios()
	require.NoError(t, err)
	require.Len(t, ratios, 2)

	for j, or := range ratios {
		assert.Greater(t, or.Estimate, 1.0, "positive coefficient means odds ratio above 1 (feature %d)", j)
		assert.Less(t, or.Lower, or.Estimate)
		assert.Greater(t, or.Upper, or.Estimate)
		assert.Greater(t, or.Lower, 0.0)
	}
}

func TestWithFitInterceptFalse(t *testing.T) {
	X, y := twoClassData(200, 19)

	clf := New(WithMaxIter(500), WithFitIntercept(false), WithC(1.0))
	require.NoError(t, clf.Fit(X, y))

	b, err := clf.Intercept()
	require.NoError(t, err)
	assert.Equal(t, 0.0, b)

	// Odds ratios still line up with the predictors.
	ratios, err := clf.OddsRatios()
	require.NoError(t, err)
	assert.Len(t, ratios, 2)
}

func TestSummary(t *testing.T) {
	X, y := twoClassData(100, 23)

	clf := New(WithMaxIter(500), WithC(1.0))
	require.NoError(t, clf.Fit(X, y))

	summary, err := clf.Summary([]string{"marker_a", "marker_b"})
	require.NoError(t, err)
	assert.Contains(t, summary, "marker_a")
	assert.Contains(t, summary, "(intercept)")
	assert.Contains(t, summary, "odds")

	_, err = clf.Summary([]string{"only_one"})
	assert.Error(t, err, "name count must match predictors")
}

func TestStableSigmoid(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{z: 0, want: 0.5},
		{z: 1000, want: 1.0},
		{z: -1000, want: 0.0},
	}
	for _, tt := range tests {
		got := stableSigmoid(tt.z)
		assert.InDelta(t, tt.want, got, 1e-9)
		assert.False(t, math.IsNaN(got))
	}
}
