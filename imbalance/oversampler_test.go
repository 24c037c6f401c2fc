package imbalance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// imbalancedData draws n0 negatives around (0,0) and n1 positives around
// (4,4) on a fixed seed.
func imbalancedData(n0, n1 int, seed int64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewSource(seed))
	n := n0 + n1
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		center, label := 0.0, 0.0
		if i >= n0 {
			center, label = 4.0, 1.0
		}
		X.Set(i, 0, center+rng.NormFloat64())
		X.Set(i, 1, center+rng.NormFloat64())
		y.SetVec(i, label)
	}
	return X, y
}

func countClasses(y *mat.VecDense) (zeros, ones int) {
	for i := 0; i < y.Len(); i++ {
		if y.AtVec(i) == 1 {
			ones++
		} else {
			zeros++
		}
	}
	return zeros, ones
}

func TestBalanceEqualizesClassCounts(t *testing.T) {
	tests := []struct {
		name   string
		n0, n1 int
	}{
		{name: "minority positives", n0: 70, n1: 20},
		{name: "minority negatives", n0: 15, n1: 60},
		{name: "tiny minority", n0: 50, n1: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := imbalancedData(tt.n0, tt.n1, 5)

			sampler := NewOversampler(1103)
			Xb, yb, err := sampler.Balance(X, y)
			require.NoError(t, err)

			zeros, ones := countClasses(yb)
			assert.Equal(t, zeros, ones, "class counts must be equal after balancing")

			majority := tt.n0
			if tt.n1 > tt.n0 {
				majority = tt.n1
			}
			rb, cb := Xb.Dims()
			assert.Equal(t, 2*majority, rb)
			assert.Equal(t, 2, cb)
			assert.Equal(t, rb, yb.Len())
		})
	}
}

func TestBalancePreservesOriginalRows(t *testing.T) {
	X, y := imbalancedData(40, 10, 9)

	sampler := NewOversampler(7)
	Xb, yb, err := sampler.Balance(X, y)
	require.NoError(t, err)

	// The first len(y) rows are the originals, in order.
	for i := 0; i < y.Len(); i++ {
		assert.Equal(t, y.AtVec(i), yb.AtVec(i))
		assert.Equal(t, X.At(i, 0), Xb.At(i, 0))
		assert.Equal(t, X.At(i, 1), Xb.At(i, 1))
	}

	// Appended rows all carry the minority label.
	for i := y.Len(); i < yb.Len(); i++ {
		assert.Equal(t, 1.0, yb.AtVec(i))
	}
}

func TestBalanceSyntheticRowsNearMinority(t *testing.T) {
	// Minority cluster sits around (4,4); synthetic rows interpolate between
	// minority samples so they stay in that neighborhood.
	X, y := imbalancedData(60, 12, 13)

	sampler := NewOversampler(21)
	Xb, yb, err := sampler.Balance(X, y)
	require.NoError(t, err)

	for i := y.Len(); i < yb.Len(); i++ {
		assert.InDelta(t, 4.0, Xb.At(i, 0), 5.0)
		assert.InDelta(t, 4.0, Xb.At(i, 1), 5.0)
	}
}

func TestBalanceReproducible(t *testing.T) {
	X, y := imbalancedData(50, 15, 17)

	a1, b1, err := NewOversampler(1103).Balance(X, y)
	require.NoError(t, err)
	a2, b2, err := NewOversampler(1103).Balance(X, y)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a1, a2), "same seed must synthesize identical rows")
	assert.True(t, mat.Equal(b1, b2))

	a3, _, err := NewOversampler(99).Balance(X, y)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a1, a3), "different seeds should differ")
}

func TestBalanceAlreadyBalanced(t *testing.T) {
	X, y := imbalancedData(25, 25, 19)

	Xb, yb, err := NewOversampler(1).Balance(X, y)
	require.NoError(t, err)

	assert.True(t, mat.Equal(X, Xb), "balanced input passes through unchanged")
	assert.True(t, mat.Equal(y, yb))
}

func TestBalanceSingletonMinority(t *testing.T) {
	// A single minority row has no neighbors; synthetic rows duplicate it.
	X := mat.NewDense(5, 2, []float64{
		0, 0,
		0.5, 0.1,
		-0.2, 0.3,
		0.1, -0.4,
		4, 4,
	})
	y := mat.NewVecDense(5, []float64{0, 0, 0, 0, 1})

	Xb, yb, err := NewOversampler(3).Balance(X, y)
	require.NoError(t, err)

	zeros, ones := countClasses(yb)
	assert.Equal(t, zeros, ones)
	for i := 5; i < yb.Len(); i++ {
		assert.Equal(t, 4.0, Xb.At(i, 0))
		assert.Equal(t, 4.0, Xb.At(i, 1))
	}
}

func TestBalanceValidation(t *testing.T) {
	sampler := NewOversampler(1)

	// Row mismatch.
	_, _, err := sampler.Balance(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{0, 1}))
	assert.Error(t, err)

	// Non-binary label.
	_, _, err = sampler.Balance(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{0, 2}))
	assert.Error(t, err)

	// Single class present.
	_, _, err = sampler.Balance(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{1, 1}))
	assert.Error(t, err)
}
