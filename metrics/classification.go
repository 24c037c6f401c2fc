package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
)

// ConfusionMatrix is the 2×2 contingency table of binary predictions against
// true labels at a fixed probability threshold.
type ConfusionMatrix struct {
	Threshold float64
	TP        int // true positives
	FP        int // false positives
	TN        int // true negatives
	FN        int // false negatives
}

// Accuracy returns the fraction of correct predictions.
func (c ConfusionMatrix) Accuracy() float64 {
	total := c.TP + c.FP + c.TN + c.FN
	if total == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Sensitivity returns the true positive rate TP/(TP+FN). When no positive
// cases exist an UndefinedMetricWarning is reported and 0 is returned.
func (c ConfusionMatrix) Sensitivity() float64 {
	if c.TP+c.FN == 0 {
		clinstatErrors.Warn(clinstatErrors.NewUndefinedMetricWarning(
			"sensitivity", "no positive cases", 0))
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// Specificity returns the true negative rate TN/(TN+FP). When no negative
// cases exist an UndefinedMetricWarning is reported and 0 is returned.
func (c ConfusionMatrix) Specificity() float64 {
	if c.TN+c.FP == 0 {
		clinstatErrors.Warn(clinstatErrors.NewUndefinedMetricWarning(
			"specificity", "no negative cases", 0))
		return 0
	}
	return float64(c.TN) / float64(c.TN+c.FP)
}

// String renders the matrix in a compact, readable form.
func (c ConfusionMatrix) String() string {
	return fmt.Sprintf("threshold=%.2f TP=%d FP=%d TN=%d FN=%d acc=%.4f sens=%.4f spec=%.4f",
		c.Threshold, c.TP, c.FP, c.TN, c.FN, c.Accuracy(), c.Sensitivity(), c.Specificity())
}

// Confusion tabulates predicted probabilities against binary labels at the
// given threshold; probabilities >= threshold predict the positive class.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - DimensionError: if yTrue and probs have different lengths
//   - ValidationError: if yTrue contains non-binary values
func Confusion(yTrue, probs *mat.VecDense, threshold float64) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	n := yTrue.Len()
	if n == 0 {
		return cm, clinstatErrors.NewValueError("Confusion", "empty vector")
	}
	if probs.Len() != n {
		return cm, clinstatErrors.NewDimensionError("Confusion", n, probs.Len(), 0)
	}

	cm.Threshold = threshold
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return cm, clinstatErrors.NewValidationError("yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", label, i), label)
		}
		predicted := probs.AtVec(i) >= threshold
		switch {
		case predicted && label == 1:
			cm.TP++
		case predicted && label == 0:
			cm.FP++
		case !predicted && label == 0:
			cm.TN++
		default:
			cm.FN++
		}
	}
	return cm, nil
}

// ThresholdSweep evaluates the confusion matrix at evenly spaced thresholds
// from 0 to 1 inclusive. As the threshold increases, sensitivity is
// non-increasing and specificity is non-decreasing.
//
// steps is the number of intervals; steps=20 evaluates thresholds
// 0.00, 0.05, ..., 1.00.
func ThresholdSweep(yTrue, probs *mat.VecDense, steps int) ([]ConfusionMatrix, error) {
	if steps < 1 {
		return nil, clinstatErrors.NewValidationError("steps", "must be at least 1", steps)
	}
	sweep := make([]ConfusionMatrix, 0, steps+1)
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		cm, err := Confusion(yTrue, probs, t)
		if err != nil {
			return nil, err
		}
		sweep = append(sweep, cm)
	}
	return sweep, nil
}

// ROCPoint is one operating point of a receiver operating characteristic
// curve.
type ROCPoint struct {
	FPR float64 // 1 - specificity
	TPR float64 // sensitivity
}

// ROCCurve computes the ROC curve points over all distinct score thresholds,
// from (0,0) to (1,1), ordered by increasing false positive rate.
//
// Errors:
//   - ErrEmptyData: if input vectors are empty
//   - DimensionError: if yTrue and probs have different lengths
//   - ValidationError: if yTrue contains non-binary values
func ROCCurve(yTrue, probs *mat.VecDense) ([]ROCPoint, error) {
	if yTrue == nil || probs == nil {
		return nil, clinstatErrors.NewValueError("ROCCurve", "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return nil, clinstatErrors.NewValueError("ROCCurve", "input vectors cannot be empty")
	}
	if probs.Len() != n {
		return nil, clinstatErrors.NewDimensionError("ROCCurve", n, probs.Len(), 0)
	}

	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	totalPos, totalNeg := 0.0, 0.0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return nil, clinstatErrors.NewValidationError("yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", label, i), label)
		}
		pairs[i] = pair{score: probs.AtVec(i), label: label}
		if label == 1 {
			totalPos++
		} else {
			totalNeg++
		}
	}

	if totalPos == 0 || totalNeg == 0 {
		clinstatErrors.Warn(clinstatErrors.NewUndefinedMetricWarning(
			"roc curve", "all samples belong to one class", 0.5))
		return []ROCPoint{{FPR: 0, TPR: 0}, {FPR: 1, TPR: 1}}, nil
	}

	// Sweep thresholds by descending score, emitting a point whenever the
	// score changes.
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	points := []ROCPoint{{FPR: 0, TPR: 0}}
	tp, fp := 0.0, 0.0
	prevScore := pairs[0].score + 1
	for _, p := range pairs {
		if p.score != prevScore {
			points = append(points, ROCPoint{FPR: fp / totalNeg, TPR: tp / totalPos})
			prevScore = p.score
		}
		if p.label == 1 {
			tp++
		} else {
			fp++
		}
	}
	points = append(points, ROCPoint{FPR: 1, TPR: 1})
	return points, nil
}

// AUC calculates the area under the ROC curve by the trapezoid rule.
//
// The AUC is the probability that the classifier ranks a random positive
// above a random negative: 0.5 indicates random guessing, 1.0 perfect
// separation.
//
// Example:
//
//	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
//	probs := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})
//	auc, err := metrics.AUC(yTrue, probs) // 0.75
func AUC(yTrue, probs *mat.VecDense) (float64, error) {
	points, err := ROCCurve(yTrue, probs)
	if err != nil {
		return 0, err
	}

	auc := 0.0
	for i := 1; i < len(points); i++ {
		width := points[i].FPR - points[i-1].FPR
		height := (points[i].TPR + points[i-1].TPR) / 2
		auc += width * height
	}
	return auc, nil
}

// Accuracy calculates the fraction of label predictions matching the truth.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, clinstatErrors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, clinstatErrors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// BinaryLogLoss calculates the mean binary cross-entropy between binary
// labels and predicted probabilities.
func BinaryLogLoss(yTrue, probs *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, clinstatErrors.NewValueError("BinaryLogLoss", "empty vector")
	}
	if probs.Len() != n {
		return 0, clinstatErrors.NewDimensionError("BinaryLogLoss", n, probs.Len(), 0)
	}

	const epsilon = 1e-15
	loss := 0.0
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, clinstatErrors.NewValidationError("yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", y, i), y)
		}
		p := clinstatErrors.ClipValue(probs.AtVec(i), epsilon, 1-epsilon)
		if y == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}
