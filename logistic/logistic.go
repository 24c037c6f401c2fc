// Package logistic implements binomial logistic regression fitted by maximum
// likelihood.
//
// The log-odds of the positive class are modeled as a linear combination of
// the predictors. The mean negative log-likelihood is minimized with the
// L-BFGS optimizer from gonum/optimize, optionally with an L2 penalty. After
// fitting, Wald standard errors from the inverse observed information matrix
// provide odds ratios with confidence intervals for interpretation.
//
// Example usage:
//
//	clf := logistic.New(logistic.WithMaxIter(200))
//	if err := clf.Fit(XTrain, yTrain); err != nil {
//	    log.Fatal(err)
//	}
//	probs, err := clf.PredictProba(XTest)
package logistic

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/clinstat/clinstat/core/model"
	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

const (
	epsilonSmall = 1e-15

	// zCritical95 is the normal quantile for two-sided 95% intervals.
	zCritical95 = 1.959963984540054
)

// Logistic is a binomial logistic regression classifier. Outcomes must be
// coded 0 (negative class) and 1 (positive class).
type Logistic struct {
	State *model.StateManager

	// Hyperparameters.
	lambda       float64 // L2 penalty strength; 0 disables regularization
	fitIntercept bool
	maxIter      int
	tol          float64

	// Fitted parameters.
	coefficients *mat.VecDense
	intercept    float64
	stdErrors    []float64 // [intercept, coefficients...]; nil if information matrix was singular
	nFeatures    int
	nIter        int

	logger log.Logger
}

// Option is a functional option for Logistic.
type Option func(*Logistic)

// WithC sets the inverse regularization strength; the L2 penalty used is 1/C.
func WithC(c float64) Option {
	return func(l *Logistic) {
		if c > 0 {
			l.lambda = 1.0 / c
		}
	}
}

// WithFitIntercept sets whether an intercept term is estimated.
func WithFitIntercept(fit bool) Option {
	return func(l *Logistic) {
		l.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of optimizer iterations.
func WithMaxIter(maxIter int) Option {
	return func(l *Logistic) {
		l.maxIter = maxIter
	}
}

// WithTol sets the gradient tolerance for convergence.
func WithTol(tol float64) Option {
	return func(l *Logistic) {
		l.tol = tol
	}
}

// New creates a Logistic classifier. By default no penalty is applied, an
// intercept is estimated, and optimization runs for at most 100 iterations at
// tolerance 1e-6.
func New(opts ...Option) *Logistic {
	l := &Logistic{
		State:        model.NewStateManager(),
		lambda:       0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-6,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = log.GetLoggerWithName("logistic").With(
		log.ModelNameKey, "Logistic",
		log.ComponentKey, "logistic",
	)
	return l
}

// stableSigmoid computes sigmoid(z) in a numerically stable way.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// clampProbability clamps a probability away from 0 and 1 to avoid log(0).
func clampProbability(p float64) float64 {
	if p < epsilonSmall {
		return epsilonSmall
	}
	if p > 1-epsilonSmall {
		return 1 - epsilonSmall
	}
	return p
}

// Fit estimates the model on the training data by maximum likelihood.
//
// Parameters:
//   - X: predictor matrix of shape (n_samples, n_features)
//   - y: binary outcome vector of shape (n_samples, 1), values 0 or 1
//
// If the optimizer hits its iteration limit a ConvergenceWarning is
// reported through pkg/errors and the best parameters found are kept.
func (l *Logistic) Fit(X, y mat.Matrix) (err error) {
	defer clinstatErrors.Recover(&err, "Logistic.Fit")

	start := time.Now()
	nSamples, nFeatures := X.Dims()
	ry, cy := y.Dims()

	l.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)

	if nSamples == 0 || nFeatures == 0 {
		return clinstatErrors.NewModelError("Logistic.Fit", "empty data", clinstatErrors.ErrEmptyData)
	}
	if ry != nSamples {
		return clinstatErrors.NewDimensionError("Logistic.Fit", nSamples, ry, 0)
	}
	if cy != 1 {
		return clinstatErrors.NewValueError("Logistic.Fit", "y must be a column vector")
	}

	yBinary := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return clinstatErrors.NewValidationError("y",
				fmt.Sprintf("must contain only binary values (0 or 1), found %v at row %d", v, i), v)
		}
		yBinary[i] = v
	}

	l.nFeatures = nFeatures

	// Parameter vector: [w_0..w_{d-1}, b] when fitting an intercept.
	pDim := nFeatures
	hasB := 0
	if l.fitIntercept {
		pDim++
		hasB = 1
	}
	x0 := make([]float64, pDim)

	xD := mat.DenseCopyOf(X)
	lambda := l.lambda

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			// loss = mean NLL + 0.5·lambda·||w||².
			w := theta[:nFeatures]
			var b float64
			if hasB == 1 {
				b = theta[nFeatures]
			}
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				p := clampProbability(stableSigmoid(z))
				loss += -yBinary[i]*math.Log(p) - (1.0-yBinary[i])*math.Log(1.0-p)
			}
			loss /= float64(nSamples)
			if lambda > 0 {
				reg := 0.0
				for j := 0; j < nFeatures; j++ {
					reg += w[j] * w[j]
				}
				loss += 0.5 * lambda * reg
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			w := theta[:nFeatures]
			var b float64
			if hasB == 1 {
				b = theta[nFeatures]
			}
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				diff := stableSigmoid(z) - yBinary[i]
				for j := 0; j < nFeatures; j++ {
					grad[j] += diff * xD.At(i, j)
				}
				if hasB == 1 {
					grad[nFeatures] += diff
				}
			}
			invN := 1.0 / float64(nSamples)
			for j := range grad {
				grad[j] *= invN
			}
			if lambda > 0 {
				for j := 0; j < nFeatures; j++ {
					grad[j] += lambda * w[j]
				}
			}
		},
	}

	settings := optimize.Settings{
		GradientThreshold: l.tol,
		MajorIterations:   l.maxIter,
	}
	method := &optimize.LBFGS{}
	result, err := optimize.Minimize(prob, x0, &settings, method)
	if err != nil {
		return clinstatErrors.Wrap(err, "Logistic.Fit: lbfgs optimization failed")
	}

	theta := result.X
	if err := clinstatErrors.CheckNumericalStability("Logistic.Fit", theta); err != nil {
		return err
	}

	l.coefficients = mat.NewVecDense(nFeatures, nil)
	for j := 0; j < nFeatures; j++ {
		l.coefficients.SetVec(j, theta[j])
	}
	if l.fitIntercept {
		l.intercept = theta[nFeatures]
	}
	l.nIter = result.Stats.MajorIterations

	if l.nIter >= l.maxIter {
		clinstatErrors.Warn(clinstatErrors.NewConvergenceWarning(
			"Logistic.Fit", l.nIter, "gradient tolerance not reached"))
	}

	l.computeStdErrors(xD)

	l.State.SetFitted()
	l.State.SetDimensions(nFeatures, nSamples)

	l.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.IterationsKey, l.nIter,
	)
	return nil
}

// computeStdErrors derives Wald standard errors from the inverse observed
// information matrix XᵀWX, W = diag(p_i(1−p_i)). A singular information
// matrix leaves stdErrors nil; odds ratio accessors then return an error.
func (l *Logistic) computeStdErrors(xD *mat.Dense) {
	nSamples, nFeatures := xD.Dims()
	p := nFeatures
	if l.fitIntercept {
		p++
	}

	info := mat.NewDense(p, p, nil)
	xi := make([]float64, p)
	for i := 0; i < nSamples; i++ {
		z := l.intercept
		for j := 0; j < nFeatures; j++ {
			z += l.coefficients.AtVec(j) * xD.At(i, j)
		}
		pi := clampProbability(stableSigmoid(z))
		wi := pi * (1 - pi)

		if l.fitIntercept {
			xi[0] = 1
			for j := 0; j < nFeatures; j++ {
				xi[j+1] = xD.At(i, j)
			}
		} else {
			for j := 0; j < nFeatures; j++ {
				xi[j] = xD.At(i, j)
			}
		}
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				info.Set(a, b, info.At(a, b)+wi*xi[a]*xi[b])
			}
		}
	}

	var cov mat.Dense
	if err := cov.Inverse(info); err != nil {
		l.stdErrors = nil
		clinstatErrors.Warn(clinstatErrors.NewUndefinedMetricWarning(
			"wald standard errors", "singular information matrix", math.NaN()))
		return
	}

	l.stdErrors = make([]float64, p)
	for j := 0; j < p; j++ {
		l.stdErrors[j] = math.Sqrt(cov.At(j, j))
	}
}

// PredictProba returns the predicted probability of the positive class for
// each row of X.
func (l *Logistic) PredictProba(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer clinstatErrors.Recover(&err, "Logistic.PredictProba")
	if !l.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("Logistic", "PredictProba")
	}

	r, c := X.Dims()
	if c != l.nFeatures {
		return nil, clinstatErrors.NewDimensionError("Logistic.PredictProba", l.nFeatures, c, 1)
	}

	probs := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		z := l.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * l.coefficients.AtVec(j)
		}
		probs.SetVec(i, stableSigmoid(z))
	}

	l.logger.Debug("Probabilities predicted",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, r,
	)
	return probs, nil
}

// Predict classifies each row of X at the 0.5 probability threshold,
// returning 0/1 labels.
func (l *Logistic) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer clinstatErrors.Recover(&err, "Logistic.Predict")

	probs, err := l.PredictProba(X)
	if err != nil {
		return nil, err
	}
	preds := mat.NewVecDense(probs.Len(), nil)
	for i := 0; i < probs.Len(); i++ {
		if probs.AtVec(i) >= 0.5 {
			preds.SetVec(i, 1)
		}
	}
	return preds, nil
}

// Score returns the mean accuracy of 0.5-threshold predictions on X against y.
func (l *Logistic) Score(X, y mat.Matrix) (_ float64, err error) {
	defer clinstatErrors.Recover(&err, "Logistic.Score")

	preds, err := l.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if preds.AtVec(i) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// Coefficients returns a copy of the fitted predictor coefficients on the
// log-odds scale.
func (l *Logistic) Coefficients() ([]float64, error) {
	if !l.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("Logistic", "Coefficients")
	}
	out := make([]float64, l.coefficients.Len())
	for j := range out {
		out[j] = l.coefficients.AtVec(j)
	}
	return out, nil
}

// Intercept returns the fitted intercept on the log-odds scale.
func (l *Logistic) Intercept() (float64, error) {
	if !l.State.IsFitted() {
		return 0, clinstatErrors.NewNotFittedError("Logistic", "Intercept")
	}
	return l.intercept, nil
}

// NumIterations returns the optimizer iterations used by the last Fit.
func (l *Logistic) NumIterations() int { return l.nIter }

// OddsRatio is an exponentiated coefficient with its 95% Wald confidence
// interval.
type OddsRatio struct {
	Estimate float64
	Lower    float64
	Upper    float64
}

// OddsRatios returns the odds ratio exp(β_j) with 95% confidence interval for
// each predictor, in column order.
func (l *Logistic) OddsRatios() (_ []OddsRatio, err error) {
	defer clinstatErrors.Recover(&err, "Logistic.OddsRatios")
	if !l.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("Logistic", "OddsRatios")
	}
	if l.stdErrors == nil {
		return nil, clinstatErrors.NewValueError("Logistic.OddsRatios",
			"standard errors unavailable (singular information matrix)")
	}

	offset := 0
	if l.fitIntercept {
		offset = 1
	}
	ratios := make([]OddsRatio, l.nFeatures)
	for j := 0; j < l.nFeatures; j++ {
		beta := l.coefficients.AtVec(j)
		se := l.stdErrors[j+offset]
		ratios[j] = OddsRatio{
			Estimate: math.Exp(beta),
			Lower:    math.Exp(beta - zCritical95*se),
			Upper:    math.Exp(beta + zCritical95*se),
		}
	}
	return ratios, nil
}

// Summary renders a coefficient table with log-odds estimates, standard
// errors, odds ratios, and 95% confidence intervals. names labels the
// predictors in column order; when nil, placeholder names are used.
func (l *Logistic) Summary(names []string) (string, error) {
	if !l.State.IsFitted() {
		return "", clinstatErrors.NewNotFittedError("Logistic", "Summary")
	}
	if names == nil {
		names = make([]string, l.nFeatures)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j+1)
		}
	}
	if len(names) != l.nFeatures {
		return "", clinstatErrors.NewDimensionError("Logistic.Summary", l.nFeatures, len(names), 1)
	}

	ratios, err := l.OddsRatios()
	if err != nil {
		return "", err
	}

	offset := 0
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %12s %12s %10s %18s\n", "term", "log.odds", "std.error", "odds", "95% CI")
	if l.fitIntercept {
		offset = 1
		fmt.Fprintf(&b, "%-16s %12.4f %12.4f %10s %18s\n", "(intercept)",
			l.intercept, l.stdErrors[0], "-", "-")
	}
	for j := 0; j < l.nFeatures; j++ {
		or := ratios[j]
		fmt.Fprintf(&b, "%-16s %12.4f %12.4f %10.3f %8.3f - %6.3f\n",
			names[j], l.coefficients.AtVec(j), l.stdErrors[j+offset], or.Estimate, or.Lower, or.Upper)
	}
	fmt.Fprintf(&b, "\niterations = %d\n", l.nIter)
	return b.String(), nil
}

// IsFitted returns whether the model has been fitted.
func (l *Logistic) IsFitted() bool {
	return l.State.IsFitted()
}
