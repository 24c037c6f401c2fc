package dataset

import (
	"math/rand"
	"sort"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// SplitIndices draws a fixed-size uniform random sample of row indices
// without replacement from a deterministic seed, partitioning [0, n) into a
// training set of floor(trainFrac*n) indices and a disjoint test set of the
// remainder. Both index sets are returned sorted. The same seed always yields
// the same partition.
func SplitIndices(n int, trainFrac float64, seed int64) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, clinstatErrors.NewModelError("dataset.SplitIndices", "no rows", clinstatErrors.ErrEmptyData)
	}
	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, nil, clinstatErrors.NewValidationError("trainFrac",
			"must be strictly between 0 and 1", trainFrac)
	}

	nTrain := int(float64(n) * trainFrac)
	if nTrain == 0 || nTrain == n {
		return nil, nil, clinstatErrors.NewValidationError("trainFrac",
			"fraction leaves one partition empty", trainFrac)
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	train = append([]int(nil), perm[:nTrain]...)
	test = append([]int(nil), perm[nTrain:]...)
	sort.Ints(train)
	sort.Ints(test)

	// |train| + |test| = n and disjointness are pipeline invariants; a
	// violation is a bug and halts the analysis.
	if err := checkPartition(n, train, test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func checkPartition(n int, train, test []int) error {
	if len(train)+len(test) != n {
		return clinstatErrors.NewInvariantError("dataset.SplitIndices",
			"partition sizes do not sum to row count")
	}
	seen := make(map[int]struct{}, n)
	for _, i := range train {
		seen[i] = struct{}{}
	}
	for _, i := range test {
		if _, dup := seen[i]; dup {
			return clinstatErrors.NewInvariantError("dataset.SplitIndices",
				"train and test partitions overlap")
		}
		seen[i] = struct{}{}
	}
	if len(seen) != n {
		return clinstatErrors.NewInvariantError("dataset.SplitIndices",
			"partition does not cover all rows")
	}
	return nil
}

// Split partitions the table into disjoint train and test tables using
// SplitIndices. Level labels of recoded columns carry over to both subsets.
func (t *Table) Split(trainFrac float64, seed int64) (train, test *Table, err error) {
	defer clinstatErrors.Recover(&err, "Table.Split")

	trainIdx, testIdx, err := SplitIndices(t.NumRows(), trainFrac, seed)
	if err != nil {
		return nil, nil, err
	}

	train = t.subset(trainIdx)
	test = t.subset(testIdx)

	logger := log.GetLoggerWithName("dataset")
	logger.Info("Table partitioned",
		log.ComponentKey, "dataset",
		log.OperationKey, log.OperationSplit,
		log.RandomSeedKey, seed,
		log.TrainRowsKey, train.NumRows(),
		log.TestRowsKey, test.NumRows(),
	)
	return train, test, nil
}
