// Package imbalance corrects class imbalance in binary training data by
// synthesizing minority-class rows.
//
// The oversampler interpolates selected minority samples toward their nearest
// minority neighbors, weighting the selection by how many majority samples
// surround each minority point. Minority samples in contested regions of the
// feature space are sampled more often, so the synthetic rows concentrate where
// the decision boundary is hardest to learn.
//
// Balancing is a training-time operation only. Apply it to the training subset
// after splitting; the test subset must keep its natural class distribution.
package imbalance

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// Oversampler synthesizes minority-class rows until both classes have equal
// counts.
type Oversampler struct {
	// K is the number of nearest minority neighbors considered when
	// interpolating a synthetic row.
	K int

	// NeighborhoodSize is the number of nearest samples (either class) used to
	// estimate the local majority density around each minority sample.
	NeighborhoodSize int

	seed   int64
	logger log.Logger
}

// Option configures an Oversampler.
type Option func(*Oversampler)

// WithK sets the number of nearest minority neighbors used for interpolation.
func WithK(k int) Option {
	return func(s *Oversampler) { s.K = k }
}

// WithNeighborhoodSize sets the neighborhood used to weight minority samples
// by surrounding majority density.
func WithNeighborhoodSize(m int) Option {
	return func(s *Oversampler) { s.NeighborhoodSize = m }
}

// NewOversampler creates an Oversampler with a fixed random seed. The default
// uses 5 interpolation neighbors and a density neighborhood of 5.
func NewOversampler(seed int64, opts ...Option) *Oversampler {
	s := &Oversampler{
		K:                5,
		NeighborhoodSize: 5,
		seed:             seed,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.GetLoggerWithName("imbalance").With(
		log.ModelNameKey, "Oversampler",
		log.ComponentKey, "imbalance",
		log.RandomSeedKey, seed,
	)
	return s
}

// Balance returns copies of X and y extended with synthetic minority rows so
// that both classes have the majority count. The original rows are preserved
// in order; synthetic rows are appended. When the classes are already equal,
// copies of the input are returned unchanged.
//
// Errors:
//   - ErrEmptyData: if X has no rows
//   - DimensionError: if X and y row counts differ
//   - ValidationError: if y contains values other than 0 and 1, or only one
//     class is present
func (s *Oversampler) Balance(X *mat.Dense, y *mat.VecDense) (_ *mat.Dense, _ *mat.VecDense, err error) {
	defer clinstatErrors.Recover(&err, "Oversampler.Balance")

	start := time.Now()
	r, c := X.Dims()
	if r == 0 {
		return nil, nil, clinstatErrors.NewModelError("Oversampler.Balance", "empty data", clinstatErrors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, nil, clinstatErrors.NewDimensionError("Oversampler.Balance", r, y.Len(), 0)
	}

	var zeros, ones []int
	for i := 0; i < r; i++ {
		switch y.AtVec(i) {
		case 0:
			zeros = append(zeros, i)
		case 1:
			ones = append(ones, i)
		default:
			return nil, nil, clinstatErrors.NewValidationError("y",
				"must contain only binary values (0 or 1)", y.AtVec(i))
		}
	}
	if len(zeros) == 0 || len(ones) == 0 {
		return nil, nil, clinstatErrors.NewValidationError("y",
			"both classes must be present", nil)
	}

	minority, majority := ones, zeros
	minorityLabel := 1.0
	if len(zeros) < len(ones) {
		minority, majority = zeros, ones
		minorityLabel = 0.0
	}
	needed := len(majority) - len(minority)

	s.logger.Info("Balancing started",
		log.OperationKey, log.OperationResample,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"minority_count", len(minority),
		"majority_count", len(majority),
	)

	if needed == 0 {
		Xb := mat.DenseCopyOf(X)
		yb := mat.VecDenseCopyOf(y)
		return Xb, yb, nil
	}

	rng := rand.New(rand.NewSource(s.seed))
	weights := s.minorityWeights(X, minority, majority)
	neighbors := s.minorityNeighbors(X, minority)

	Xb := mat.NewDense(r+needed, c, nil)
	yb := mat.NewVecDense(r+needed, nil)
	Xb.Slice(0, r, 0, c).(*mat.Dense).Copy(X)
	for i := 0; i < r; i++ {
		yb.SetVec(i, y.AtVec(i))
	}

	synth := make([]float64, c)
	for g := 0; g < needed; g++ {
		mi := weightedChoice(rng, weights)
		base := minority[mi]

		nbrs := neighbors[mi]
		nbr := base
		if len(nbrs) > 0 {
			nbr = nbrs[rng.Intn(len(nbrs))]
		}

		// Interpolate: synth = base + u * (neighbor - base), u ~ U(0,1).
		u := rng.Float64()
		for j := 0; j < c; j++ {
			b := X.At(base, j)
			synth[j] = b + u*(X.At(nbr, j)-b)
		}
		Xb.SetRow(r+g, synth)
		yb.SetVec(r+g, minorityLabel)
	}

	s.logger.Info("Balancing completed",
		log.OperationKey, log.OperationResample,
		log.PhaseKey, log.PhasePreprocessing,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"synthesized", needed,
		"balanced_rows", r+needed,
	)
	return Xb, yb, nil
}

// minorityWeights estimates, for each minority sample, how contested its
// neighborhood is: one plus the number of majority samples among its
// NeighborhoodSize nearest neighbors. The additive one keeps every minority
// sample selectable.
func (s *Oversampler) minorityWeights(X *mat.Dense, minority, majority []int) []float64 {
	_, c := X.Dims()
	m := s.NeighborhoodSize

	all := make([]int, 0, len(minority)+len(majority))
	all = append(all, minority...)
	all = append(all, majority...)
	isMajority := make(map[int]bool, len(majority))
	for _, i := range majority {
		isMajority[i] = true
	}

	weights := make([]float64, len(minority))
	for mi, base := range minority {
		type cand struct {
			idx  int
			dist float64
		}
		cands := make([]cand, 0, len(all)-1)
		for _, other := range all {
			if other == base {
				continue
			}
			cands = append(cands, cand{idx: other, dist: squaredDistance(X, base, other, c)})
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

		limit := m
		if limit > len(cands) {
			limit = len(cands)
		}
		majorityNearby := 0
		for _, cd := range cands[:limit] {
			if isMajority[cd.idx] {
				majorityNearby++
			}
		}
		weights[mi] = float64(majorityNearby) + 1
	}
	return weights
}

// minorityNeighbors returns, for each minority sample, the indices of its K
// nearest minority neighbors (fewer when the class is small).
func (s *Oversampler) minorityNeighbors(X *mat.Dense, minority []int) [][]int {
	_, c := X.Dims()
	k := s.K
	if k > len(minority)-1 {
		k = len(minority) - 1
	}

	neighbors := make([][]int, len(minority))
	for mi, base := range minority {
		if k <= 0 {
			neighbors[mi] = nil
			continue
		}
		type cand struct {
			idx  int
			dist float64
		}
		cands := make([]cand, 0, len(minority)-1)
		for _, other := range minority {
			if other == base {
				continue
			}
			cands = append(cands, cand{idx: other, dist: squaredDistance(X, base, other, c)})
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })

		nbrs := make([]int, k)
		for i := 0; i < k; i++ {
			nbrs[i] = cands[i].idx
		}
		neighbors[mi] = nbrs
	}
	return neighbors
}

func squaredDistance(X *mat.Dense, a, b, c int) float64 {
	d := 0.0
	for j := 0; j < c; j++ {
		diff := X.At(a, j) - X.At(b, j)
		d += diff * diff
	}
	return d
}

// weightedChoice draws an index with probability proportional to its weight.
func weightedChoice(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsNaN(total) {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
