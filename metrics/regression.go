// Package metrics provides evaluation metrics for the clinstat models.
//
// Regression metrics:
//   - MSE / RMSE: mean squared error and its square root
//   - MAE: mean absolute error
//   - R²: coefficient of determination
//
// Classification metrics:
//   - ConfusionMatrix with accuracy, sensitivity, and specificity
//   - Threshold sweeps over a probability grid
//   - ROC curves and AUC
//   - Binary log loss
//
// All metrics take gonum vectors and validate shapes before computing.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
)

// MSE calculates the mean squared error between true and predicted values.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, clinstatErrors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, clinstatErrors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE calculates the root mean squared error, the error in the same units
// as the outcome variable.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the mean absolute error between true and predicted values.
// MAE is more robust to outliers than MSE as differences are not squared.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, clinstatErrors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, clinstatErrors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination (R²).
//
// R² is the proportion of outcome variance predictable from the predictors:
// 1 is perfect, 0 is no better than the mean, negative is worse than the
// mean.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
//   - ValueError: if yTrue has no variance
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, clinstatErrors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, clinstatErrors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)
		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, clinstatErrors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}
