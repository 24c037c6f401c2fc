// Package preprocessing provides data preparation steps for the clinstat
// pipelines.
//
// StandardScaler covers both transformations the case studies need: mean
// centering (withStd=false), where a column has its training-set mean
// subtracted from both partitions so that centering never leaks test
// statistics, and full standardization to zero mean and unit variance. The
// package also computes pairwise Pearson correlations and greedily removes
// columns until no remaining pair exceeds a collinearity cutoff.
//
// Example usage:
//
//	centerer := preprocessing.NewStandardScaler(true, false)
//	if err := centerer.Fit(XTrain); err != nil {
//	    log.Fatal(err)
//	}
//	XTrainCentered, err := centerer.Transform(XTrain)
//	XTestCentered, err := centerer.Transform(XTest)
package preprocessing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/clinstat/clinstat/core/model"
	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// StandardScaler standardizes features by removing the mean and scaling to
// unit variance, using statistics captured at Fit time.
type StandardScaler struct {
	State *model.StateManager

	// Mean holds the per-feature mean captured by Fit.
	Mean []float64

	// Scale holds the per-feature standard deviation captured by Fit.
	Scale []float64

	// NFeatures is the number of features seen by Fit.
	NFeatures int

	// WithMean controls whether the mean is subtracted.
	WithMean bool

	// WithStd controls whether values are divided by the standard deviation.
	WithStd bool

	logger log.Logger
}

// NewStandardScaler creates a StandardScaler.
//
// With withMean=true and withStd=false the scaler performs pure mean
// centering; with both true it performs z-score standardization. Statistics
// always come from the data passed to Fit, so fitting on the training
// partition and transforming both partitions keeps test statistics out of the
// preprocessing.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	s := &StandardScaler{
		State:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
	s.logger = log.GetLoggerWithName("preprocessing").With(
		log.ModelNameKey, "StandardScaler",
		log.ComponentKey, "preprocessing",
	)
	return s
}

// NewStandardScalerDefault creates a StandardScaler with both centering and
// scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-feature mean and standard deviation of X.
//
// Parameters:
//   - X: data matrix of shape (n_samples, n_features)
//
// Errors:
//   - ErrEmptyData: if X is empty
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer clinstatErrors.Recover(&err, "StandardScaler.Fit")

	start := time.Now()
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return clinstatErrors.NewModelError("StandardScaler.Fit", "empty data", clinstatErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// Guard constant columns against division by zero.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.State.SetFitted()
	s.State.SetDimensions(c, r)

	s.logger.Debug("Scaler fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Transform applies the fitted statistics to X:
// X_scaled = (X - mean) / scale. The input shape is preserved.
//
// Errors:
//   - NotFittedError: if Fit has not been called
//   - DimensionError: if X has a different feature count than the fit data
func (s *StandardScaler) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer clinstatErrors.Recover(&err, "StandardScaler.Transform")
	if !s.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, clinstatErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer clinstatErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform reverses the transformation:
// X_orig = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer clinstatErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, clinstatErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// IsFitted returns whether the scaler has been fitted.
func (s *StandardScaler) IsFitted() bool {
	return s.State.IsFitted()
}

// String returns a short description of the scaler configuration.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
