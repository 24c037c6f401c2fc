package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func columnMean(X *mat.Dense, j int) float64 {
	r, _ := X.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		sum += X.At(i, j)
	}
	return sum / float64(r)
}

func columnVariance(X *mat.Dense, j int) float64 {
	r, _ := X.Dims()
	mean := columnMean(X, j)
	sum := 0.0
	for i := 0; i < r; i++ {
		d := X.At(i, j) - mean
		sum += d * d
	}
	return sum / float64(r)
}

func TestStandardScalerCentering(t *testing.T) {
	// Pure mean centering: withStd=false.
	XTrain := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	XTest := mat.NewDense(2, 2, []float64{
		5, 50,
		6, 60,
	})

	centerer := NewStandardScaler(true, false)
	require.NoError(t, centerer.Fit(XTrain))

	trainC, err := centerer.Transform(XTrain)
	require.NoError(t, err)
	testC, err := centerer.Transform(XTest)
	require.NoError(t, err)

	// Training column means are exactly 0 after centering.
	for j := 0; j < 2; j++ {
		assert.InDelta(t, 0.0, columnMean(trainC, j), 1e-12)
	}

	// Test columns are shifted by the training means, not their own.
	assert.InDelta(t, 5-2.5, testC.At(0, 0), 1e-12)
	assert.InDelta(t, 50-25, testC.At(0, 1), 1e-12)

	// Scale is untouched in centering mode.
	assert.InDelta(t, 1.0, centerer.Scale[0], 1e-12)
}

func TestStandardScalerStandardization(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		2, 100,
		4, 110,
		6, 120,
		8, 130,
		10, 140,
	})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		assert.InDelta(t, 0.0, columnMean(Xs, j), 1e-10, "column %d mean", j)
		assert.InDelta(t, 1.0, columnVariance(Xs, j), 1e-10, "column %d variance", j)
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	// Zero variance guard: scale falls back to 1, values center to 0.
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0.0, Xs.At(i, 0), 1e-12)
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{3, 9, 12, 24})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, X.At(i, 0), back.At(i, 0), 1e-10)
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
}

func TestCorrelationMatrix(t *testing.T) {
	// Second column is an exact linear function of the first.
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
	})

	corr, err := CorrelationMatrix(X)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, corr.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, corr.At(1, 1), 1e-12)
}

func TestReduceCorrelated(t *testing.T) {
	// Columns 0 and 1 are nearly collinear; column 2 is independent noise.
	X := mat.NewDense(8, 3, []float64{
		1.0, 2.1, 5.0,
		2.0, 3.9, -3.0,
		3.0, 6.1, 1.0,
		4.0, 8.0, 8.0,
		5.0, 9.9, -6.0,
		6.0, 12.2, 2.0,
		7.0, 14.0, -1.0,
		8.0, 15.9, 4.0,
	})

	kept, err := ReduceCorrelated(X, 0.60)
	require.NoError(t, err)

	assert.Len(t, kept, 2, "one of the collinear pair must go")
	assert.Contains(t, kept, 2, "the independent column always survives")

	// Remaining pairs are all below the cutoff.
	reduced, err := SelectColumns(X, kept)
	require.NoError(t, err)
	corr, err := CorrelationMatrix(reduced)
	require.NoError(t, err)
	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			assert.Less(t, math.Abs(corr.At(i, j)), 0.60)
		}
	}
}

func TestReduceCorrelatedNoViolation(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		1, 4,
		2, -2,
		3, 7,
		4, 0,
		5, -5,
		6, 3,
	})

	kept, err := ReduceCorrelated(X, 0.95)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, kept, "nothing to drop below the cutoff")
}

func TestSelectColumns(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})

	out, err := SelectColumns(X, []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.At(0, 0))
	assert.Equal(t, 4.0, out.At(1, 1))

	_, err = SelectColumns(X, []int{5})
	assert.Error(t, err)
}
