package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	csv := "age,bmi,smoker\n44,27.1,0\n61,31.4,1\n38,22.9,0\n"
	tbl, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"age", "bmi", "smoker"}, tbl.Names())

	bmi, err := tbl.Column("bmi")
	require.NoError(t, err)
	assert.InDelta(t, 31.4, bmi[1], 1e-12)
}

func TestReadCSVParseError(t *testing.T) {
	csv := "age,bmi\n44,27.1\n61,not-a-number\n"
	_, err := ReadCSV(strings.NewReader(csv))
	require.Error(t, err)
	// Error carries row and column context.
	assert.Contains(t, err.Error(), "bmi")
}

func TestRecode(t *testing.T) {
	tbl, err := New([]string{"smoker"}, [][]float64{{0}, {1}, {0}})
	require.NoError(t, err)

	err = tbl.Recode("smoker", map[float64]string{0: "no", 1: "yes"})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows(), "recoding must preserve row count")
	assert.Equal(t, "yes", tbl.Label("smoker", 1))
	assert.Equal(t, "no", tbl.Label("smoker", 0))

	// Numeric codes stay numeric so the column remains usable as an outcome.
	col, err := tbl.Column("smoker")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, col)
}

func TestRecodeUnlabeledValue(t *testing.T) {
	tbl, err := New([]string{"grade"}, [][]float64{{0}, {2}})
	require.NoError(t, err)

	err = tbl.Recode("grade", map[float64]string{0: "low", 1: "high"})
	assert.Error(t, err, "value 2 has no label")
}

func TestMatrixAndVector(t *testing.T) {
	tbl, err := New([]string{"a", "b", "y"}, [][]float64{
		{1, 10, 100},
		{2, 20, 200},
	})
	require.NoError(t, err)

	X, err := tbl.Matrix("b", "a")
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 10.0, X.At(0, 0), "columns follow the requested order")
	assert.Equal(t, 1.0, X.At(0, 1))

	y, err := tbl.Vector("y")
	require.NoError(t, err)
	assert.Equal(t, 200.0, y.AtVec(1))
}

func TestSplitIndicesInvariants(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		trainFrac float64
		seed      int64
	}{
		{name: "cancer case study", n: 140, trainFrac: 0.75, seed: 1103},
		{name: "small table", n: 10, trainFrac: 0.5, seed: 1},
		{name: "uneven fraction", n: 97, trainFrac: 0.8, seed: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := SplitIndices(tt.n, tt.trainFrac, tt.seed)
			require.NoError(t, err)

			assert.Equal(t, tt.n, len(train)+len(test), "|train| + |test| must equal n")
			assert.Equal(t, int(float64(tt.n)*tt.trainFrac), len(train))

			seen := make(map[int]bool)
			for _, i := range train {
				assert.False(t, seen[i])
				seen[i] = true
			}
			for _, i := range test {
				assert.False(t, seen[i], "train and test must be disjoint")
				seen[i] = true
			}
			assert.Len(t, seen, tt.n, "partition must cover all rows")
		})
	}
}

func TestSplitIndicesReproducible(t *testing.T) {
	// The fixed seed must reproduce identical indices across runs.
	train1, test1, err := SplitIndices(140, 0.75, 1103)
	require.NoError(t, err)
	train2, test2, err := SplitIndices(140, 0.75, 1103)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	train3, _, err := SplitIndices(140, 0.75, 1104)
	require.NoError(t, err)
	assert.NotEqual(t, train1, train3, "different seeds should permute differently")
}

func TestSplitIndicesValidation(t *testing.T) {
	_, _, err := SplitIndices(0, 0.75, 1)
	assert.Error(t, err)

	_, _, err = SplitIndices(100, 0, 1)
	assert.Error(t, err)

	_, _, err = SplitIndices(100, 1.0, 1)
	assert.Error(t, err)

	// A fraction that leaves one side empty is rejected.
	_, _, err = SplitIndices(2, 0.1, 1)
	assert.Error(t, err)
}

func TestTableSplit(t *testing.T) {
	rows := make([][]float64, 20)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i % 2)}
	}
	tbl, err := New([]string{"x", "flag"}, rows)
	require.NoError(t, err)
	require.NoError(t, tbl.Recode("flag", map[float64]string{0: "a", 1: "b"}))

	train, test, err := tbl.Split(0.75, 7)
	require.NoError(t, err)

	assert.Equal(t, 15, train.NumRows())
	assert.Equal(t, 5, test.NumRows())
	assert.Equal(t, 20, tbl.NumRows(), "split must not mutate the source table")

	// Level labels carry over to both subsets.
	assert.Equal(t, "b", train.Label("flag", 1))
	assert.Equal(t, "a", test.Label("flag", 0))

	// Every x value appears exactly once across the two subsets.
	seen := make(map[float64]int)
	for _, sub := range []*Table{train, test} {
		col, err := sub.Column("x")
		require.NoError(t, err)
		for _, v := range col {
			seen[v]++
		}
	}
	assert.Len(t, seen, 20)
	for v, count := range seen {
		assert.Equal(t, 1, count, "row %v duplicated or dropped", v)
	}
}

func TestAppend(t *testing.T) {
	tbl, err := New([]string{"a", "b"}, [][]float64{{1, 2}})
	require.NoError(t, err)

	require.NoError(t, tbl.Append([][]float64{{3, 4}, {5, 6}}))
	assert.Equal(t, 3, tbl.NumRows())

	err = tbl.Append([][]float64{{1}})
	assert.Error(t, err, "ragged rows are rejected")
}

func TestSetColumnPreservesRowCount(t *testing.T) {
	tbl, err := New([]string{"a"}, [][]float64{{1}, {2}, {3}})
	require.NoError(t, err)

	require.NoError(t, tbl.SetColumn("a", []float64{9, 8, 7}))
	col, _ := tbl.Column("a")
	assert.Equal(t, []float64{9, 8, 7}, col)

	err = tbl.SetColumn("a", []float64{1, 2})
	assert.Error(t, err, "replacement must have one value per row")
}
