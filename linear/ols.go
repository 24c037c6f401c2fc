// Package linear implements ordinary least squares regression with the
// inference statistics needed for model interpretation and diagnostics.
//
// The fitter solves the normal equations with an explicit (XᵀX)⁻¹, which is
// then reused for coefficient standard errors, leverages, and Cook's
// distances. A fitted model is immutable: diagnostics and evaluation read
// from it, influential-point filtering produces data for a fresh fit rather
// than mutating the existing one.
//
// Example usage:
//
//	ols := linear.NewOLS()
//	if err := ols.Fit(XTrain, yTrain); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ols.Summary([]string{"age", "bmi", "smoker"}))
//	preds, err := ols.Predict(XTest)
package linear

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/clinstat/clinstat/core/model"
	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// OLS is an ordinary least squares regression model:
// outcome = intercept + Σ coefficient_j · predictor_j + error.
type OLS struct {
	State *model.StateManager

	// Coefficients holds the fitted predictor coefficients, excluding the
	// intercept.
	Coefficients *mat.VecDense

	// Intercept is the fitted intercept term.
	Intercept float64

	// stdErrors holds standard errors for [intercept, coefficients...].
	stdErrors []float64

	fittedValues *mat.VecDense
	residuals    *mat.VecDense

	// design and xtxInv are retained from Fit for leverage and Cook's
	// distance computations. design includes the intercept column.
	design *mat.Dense
	xtxInv *mat.Dense

	rss    float64
	sigma2 float64
	r2     float64

	nObs      int
	nFeatures int
	logger    log.Logger
}

// NewOLS creates a new, untrained ordinary least squares model.
func NewOLS() *OLS {
	o := &OLS{
		State: model.NewStateManager(),
	}
	o.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "OLS",
		log.ComponentKey, "linear",
	)
	return o
}

// Fit estimates the model on the training data by minimizing the summed
// squared residuals.
//
// Parameters:
//   - X: predictor matrix of shape (n_samples, n_features)
//   - y: outcome vector of shape (n_samples, 1)
//
// Errors:
//   - ErrEmptyData: if X or y is empty
//   - DimensionError: if row counts of X and y differ
//   - ErrSingularMatrix: if XᵀX cannot be inverted
func (o *OLS) Fit(X, y mat.Matrix) (err error) {
	defer clinstatErrors.Recover(&err, "OLS.Fit")

	start := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	o.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	if r == 0 || c == 0 {
		return clinstatErrors.NewModelError("OLS.Fit", "empty data", clinstatErrors.ErrEmptyData)
	}
	if ry != r {
		return clinstatErrors.NewDimensionError("OLS.Fit", r, ry, 0)
	}
	if cy != 1 {
		return clinstatErrors.NewValueError("OLS.Fit", "y must be a column vector")
	}
	if r <= c+1 {
		return clinstatErrors.NewValueError("OLS.Fit",
			fmt.Sprintf("need more than %d rows to fit %d predictors with an intercept", c+1, c))
	}

	o.nObs = r
	o.nFeatures = c

	// Design matrix with a leading column of ones for the intercept.
	design := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		design.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			design.Set(i, j+1, X.At(i, j))
		}
	}

	// Normal equations: weights = (XᵀX)⁻¹ Xᵀ y.
	var xt mat.Dense
	xt.CloneFrom(design.T())

	var xtx mat.Dense
	xtx.Mul(&xt, design)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return clinstatErrors.NewModelError("OLS.Fit", "singular design matrix", clinstatErrors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var xty mat.VecDense
	xty.MulVec(&xt, yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&xtxInv, &xty)

	o.Intercept = weights.AtVec(0)
	o.Coefficients = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		o.Coefficients.SetVec(j, weights.AtVec(j+1))
	}

	// Fitted values and residuals.
	o.fittedValues = mat.NewVecDense(r, nil)
	o.fittedValues.MulVec(design, weights)

	o.residuals = mat.NewVecDense(r, nil)
	o.rss = 0
	var ySum float64
	for i := 0; i < r; i++ {
		e := yVec.AtVec(i) - o.fittedValues.AtVec(i)
		o.residuals.SetVec(i, e)
		o.rss += e * e
		ySum += yVec.AtVec(i)
	}

	// Residual variance and coefficient standard errors:
	// se_j = sqrt(σ̂² · (XᵀX)⁻¹_jj) with σ̂² = RSS / (n − k − 1).
	dof := float64(r - c - 1)
	o.sigma2 = o.rss / dof
	o.stdErrors = make([]float64, c+1)
	for j := 0; j <= c; j++ {
		o.stdErrors[j] = math.Sqrt(o.sigma2 * xtxInv.At(j, j))
	}

	yMean := ySum / float64(r)
	var tss float64
	for i := 0; i < r; i++ {
		d := yVec.AtVec(i) - yMean
		tss += d * d
	}
	if tss > 0 {
		o.r2 = 1 - o.rss/tss
	}

	o.design = design
	o.xtxInv = &xtxInv

	o.State.SetFitted()
	o.State.SetDimensions(c, r)

	o.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.R2ScoreKey, o.r2,
		log.AICKey, o.AIC(),
	)
	return nil
}

// Predict returns fitted outcomes for new predictor rows.
//
// Errors:
//   - NotFittedError: if the model has not been trained
//   - DimensionError: if X has a different feature count than the fit data
func (o *OLS) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer clinstatErrors.Recover(&err, "OLS.Predict")
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "Predict")
	}

	r, c := X.Dims()
	if c != o.nFeatures {
		return nil, clinstatErrors.NewDimensionError("OLS.Predict", o.nFeatures, c, 1)
	}

	o.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, r,
	)

	preds := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		pred := o.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * o.Coefficients.AtVec(j)
		}
		preds.SetVec(i, pred)
	}
	return preds, nil
}

// FittedValues returns a copy of the in-sample fitted outcomes.
func (o *OLS) FittedValues() (*mat.VecDense, error) {
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "FittedValues")
	}
	return mat.VecDenseCopyOf(o.fittedValues), nil
}

// Residuals returns a copy of the training residuals, aligned by row with the
// training subset.
func (o *OLS) Residuals() (*mat.VecDense, error) {
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "Residuals")
	}
	return mat.VecDenseCopyOf(o.residuals), nil
}

// StdErrors returns the standard errors of [intercept, coefficients...].
func (o *OLS) StdErrors() ([]float64, error) {
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "StdErrors")
	}
	return append([]float64(nil), o.stdErrors...), nil
}

// RSS returns the residual sum of squares of the fit.
func (o *OLS) RSS() float64 { return o.rss }

// Sigma2 returns the estimated residual variance RSS/(n−k−1).
func (o *OLS) Sigma2() float64 { return o.sigma2 }

// R2 returns the in-sample coefficient of determination.
func (o *OLS) R2() float64 { return o.r2 }

// NumObservations returns the number of training rows.
func (o *OLS) NumObservations() int { return o.nObs }

// NumPredictors returns the number of predictors, excluding the intercept.
func (o *OLS) NumPredictors() int { return o.nFeatures }

// AIC returns the Akaike Information Criterion of the fit under Gaussian
// errors: n(ln 2π + ln(RSS/n) + 1) + 2(k + 2). Lower is better; values are
// comparable only across models fit on identical rows.
func (o *OLS) AIC() float64 {
	if !o.State.IsFitted() {
		return math.NaN()
	}
	n := float64(o.nObs)
	return n*(math.Log(2*math.Pi)+math.Log(o.rss/n)+1) + 2*float64(o.nFeatures+2)
}

// Score calculates the coefficient of determination (R²) on the given data.
func (o *OLS) Score(X, y mat.Matrix) (_ float64, err error) {
	defer clinstatErrors.Recover(&err, "OLS.Score")
	if !o.State.IsFitted() {
		return 0, clinstatErrors.NewNotFittedError("OLS", "Score")
	}

	preds, err := o.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - preds.AtVec(i)) * (yTrue - preds.AtVec(i))
	}
	if tss == 0 {
		return 0, clinstatErrors.NewValueError("OLS.Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// Summary renders a coefficient table with estimates, standard errors, and
// t-statistics. names labels the predictors in column order; when nil,
// placeholder names are used.
func (o *OLS) Summary(names []string) (string, error) {
	if !o.State.IsFitted() {
		return "", clinstatErrors.NewNotFittedError("OLS", "Summary")
	}
	if names == nil {
		names = make([]string, o.nFeatures)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j+1)
		}
	}
	if len(names) != o.nFeatures {
		return "", clinstatErrors.NewDimensionError("OLS.Summary", o.nFeatures, len(names), 1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %12s %12s %10s\n", "term", "estimate", "std.error", "t.value")
	fmt.Fprintf(&b, "%-16s %12.4f %12.4f %10.3f\n", "(intercept)",
		o.Intercept, o.stdErrors[0], o.Intercept/o.stdErrors[0])
	for j := 0; j < o.nFeatures; j++ {
		est := o.Coefficients.AtVec(j)
		se := o.stdErrors[j+1]
		fmt.Fprintf(&b, "%-16s %12.4f %12.4f %10.3f\n", names[j], est, se, est/se)
	}
	fmt.Fprintf(&b, "\nn = %d, R² = %.4f, AIC = %.2f\n", o.nObs, o.r2, o.AIC())
	return b.String(), nil
}

// IsFitted returns whether the model has been fitted.
func (o *OLS) IsFitted() bool {
	return o.State.IsFitted()
}
