package linear

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// Leverages returns the diagonal of the hat matrix for the training rows:
// h_i = x_iᵀ (XᵀX)⁻¹ x_i, where x_i includes the intercept term.
func (o *OLS) Leverages() (_ []float64, err error) {
	defer clinstatErrors.Recover(&err, "OLS.Leverages")
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "Leverages")
	}

	n, p := o.design.Dims()
	leverages := make([]float64, n)
	row := make([]float64, p)
	tmp := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, o.design)
		for j := 0; j < p; j++ {
			s := 0.0
			for k := 0; k < p; k++ {
				s += o.xtxInv.At(j, k) * row[k]
			}
			tmp[j] = s
		}
		h := 0.0
		for j := 0; j < p; j++ {
			h += row[j] * tmp[j]
		}
		leverages[i] = h
	}
	return leverages, nil
}

// CooksDistances returns the per-row influence measure
// D_i = e_i² / (p·σ̂²) · h_i / (1 − h_i)², aligned by row identity with the
// training subset. p counts the intercept.
func (o *OLS) CooksDistances() (_ []float64, err error) {
	defer clinstatErrors.Recover(&err, "OLS.CooksDistances")
	if !o.State.IsFitted() {
		return nil, clinstatErrors.NewNotFittedError("OLS", "CooksDistances")
	}

	leverages, err := o.Leverages()
	if err != nil {
		return nil, err
	}

	p := float64(o.nFeatures + 1)
	distances := make([]float64, o.nObs)
	for i := 0; i < o.nObs; i++ {
		e := o.residuals.AtVec(i)
		h := leverages[i]
		denom := (1 - h) * (1 - h)
		distances[i] = clinstatErrors.SafeDivide(e*e*h, p*o.sigma2*denom)
	}
	return distances, nil
}

// CooksThreshold returns the conventional influence cutoff 4 / (n − k − 1)
// for the fitted model.
func (o *OLS) CooksThreshold() float64 {
	return 4.0 / float64(o.nObs-o.nFeatures-1)
}

// InfluentialRows returns the indices of training rows whose Cook's distance
// exceeds the threshold. These rows are candidates for exclusion and refit.
func (o *OLS) InfluentialRows(threshold float64) (_ []int, err error) {
	defer clinstatErrors.Recover(&err, "OLS.InfluentialRows")

	distances, err := o.CooksDistances()
	if err != nil {
		return nil, err
	}
	var rows []int
	for i, d := range distances {
		if d > threshold {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// FilterInfluential removes the rows of X and y whose Cook's distance under
// the fitted model exceeds the threshold, returning the reduced data for a
// refit together with the removed row indices. The filtered subset never has
// more rows than the original training subset.
func (o *OLS) FilterInfluential(X, y mat.Matrix, threshold float64) (_ *mat.Dense, _ *mat.VecDense, removed []int, err error) {
	defer clinstatErrors.Recover(&err, "OLS.FilterInfluential")

	r, c := X.Dims()
	if r != o.nObs {
		return nil, nil, nil, clinstatErrors.NewDimensionError("OLS.FilterInfluential", o.nObs, r, 0)
	}

	removed, err = o.InfluentialRows(threshold)
	if err != nil {
		return nil, nil, nil, err
	}

	drop := make(map[int]struct{}, len(removed))
	for _, i := range removed {
		drop[i] = struct{}{}
	}

	kept := r - len(removed)
	Xf := mat.NewDense(kept, c, nil)
	yf := mat.NewVecDense(kept, nil)
	row := 0
	for i := 0; i < r; i++ {
		if _, gone := drop[i]; gone {
			continue
		}
		for j := 0; j < c; j++ {
			Xf.Set(row, j, X.At(i, j))
		}
		yf.SetVec(row, y.At(i, 0))
		row++
	}

	o.logger.Info("Influential rows filtered",
		log.OperationKey, "filter_influential",
		log.SamplesKey, r,
		"removed", len(removed),
		"threshold", threshold,
	)
	return Xf, yf, removed, nil
}

// VIF computes the variance inflation factor for each column of X from the
// diagonal of the inverse correlation matrix. VIF_j quantifies how much the
// variance of coefficient j is inflated by correlation with the other
// predictors; values above 5 flag concerning collinearity.
func VIF(X mat.Matrix) (_ []float64, err error) {
	defer clinstatErrors.Recover(&err, "linear.VIF")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, clinstatErrors.NewModelError("linear.VIF", "empty data", clinstatErrors.ErrEmptyData)
	}
	if c < 2 {
		return nil, clinstatErrors.NewValueError("linear.VIF", "need at least two predictors")
	}

	corr := mat.NewSymDense(c, nil)
	stat.CorrelationMatrix(corr, X, nil)

	var inv mat.Dense
	if err := inv.Inverse(corr); err != nil {
		return nil, clinstatErrors.NewModelError("linear.VIF",
			"singular correlation matrix", clinstatErrors.ErrSingularMatrix)
	}

	vifs := make([]float64, c)
	for j := 0; j < c; j++ {
		vifs[j] = inv.At(j, j)
	}
	return vifs, nil
}
