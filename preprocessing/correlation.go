package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// CorrelationMatrix computes the pairwise Pearson correlation matrix of the
// columns of X.
func CorrelationMatrix(X mat.Matrix) (_ *mat.SymDense, err error) {
	defer clinstatErrors.Recover(&err, "preprocessing.CorrelationMatrix")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, clinstatErrors.NewModelError("preprocessing.CorrelationMatrix",
			"empty data", clinstatErrors.ErrEmptyData)
	}

	corr := mat.NewSymDense(c, nil)
	stat.CorrelationMatrix(corr, X, nil)
	return corr, nil
}

// ReduceCorrelated selects the subset of columns of X such that no remaining
// pair has an absolute Pearson correlation above cutoff. Columns are removed
// greedily: while a violating pair exists, the column with the highest mean
// absolute correlation against the other remaining columns is dropped.
//
// Returns the indices of the kept columns in their original order.
func ReduceCorrelated(X mat.Matrix, cutoff float64) (kept []int, err error) {
	defer clinstatErrors.Recover(&err, "preprocessing.ReduceCorrelated")

	if cutoff <= 0 || cutoff >= 1 {
		return nil, clinstatErrors.NewValidationError("cutoff",
			"must be strictly between 0 and 1", cutoff)
	}

	corr, err := CorrelationMatrix(X)
	if err != nil {
		return nil, err
	}
	_, c := X.Dims()

	active := make([]bool, c)
	for j := range active {
		active[j] = true
	}
	nActive := c

	for nActive > 1 {
		if !hasViolation(corr, active, cutoff) {
			break
		}

		// Drop the active column with the highest mean |r| against the
		// other active columns.
		worst, worstMean := -1, -1.0
		for j := 0; j < c; j++ {
			if !active[j] {
				continue
			}
			sum := 0.0
			for k := 0; k < c; k++ {
				if k == j || !active[k] {
					continue
				}
				sum += math.Abs(corr.At(j, k))
			}
			mean := sum / float64(nActive-1)
			if mean > worstMean {
				worst, worstMean = j, mean
			}
		}
		active[worst] = false
		nActive--
	}

	for j := 0; j < c; j++ {
		if active[j] {
			kept = append(kept, j)
		}
	}

	logger := log.GetLoggerWithName("preprocessing")
	logger.Info("Correlated columns reduced",
		log.ComponentKey, "preprocessing",
		log.PhaseKey, log.PhasePreprocessing,
		log.FeaturesKey, c,
		"kept", len(kept),
		"cutoff", cutoff,
	)
	return kept, nil
}

func hasViolation(corr *mat.SymDense, active []bool, cutoff float64) bool {
	n := len(active)
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !active[j] {
				continue
			}
			if math.Abs(corr.At(i, j)) > cutoff {
				return true
			}
		}
	}
	return false
}

// SelectColumns builds a new matrix from the columns of X at the given
// indices, preserving order.
func SelectColumns(X mat.Matrix, indices []int) (_ *mat.Dense, err error) {
	defer clinstatErrors.Recover(&err, "preprocessing.SelectColumns")

	r, c := X.Dims()
	if len(indices) == 0 {
		return nil, clinstatErrors.NewValueError("preprocessing.SelectColumns", "no columns selected")
	}
	out := mat.NewDense(r, len(indices), nil)
	for k, j := range indices {
		if j < 0 || j >= c {
			return nil, clinstatErrors.NewValidationError("indices",
				"column index out of range", j)
		}
		for i := 0; i < r; i++ {
			out.Set(i, k, X.At(i, j))
		}
	}
	return out, nil
}
