package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
	"github.com/clinstat/clinstat/pkg/log"
)

// ReadCSV reads a comma-separated table from r. The first record is the
// header naming the columns; every following record must parse as float64 in
// each field. Parse failures carry the offending row and column.
func ReadCSV(r io.Reader) (_ *Table, err error) {
	defer clinstatErrors.Recover(&err, "dataset.ReadCSV")

	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "dataset.ReadCSV: read failed")
	}
	if len(records) == 0 {
		return nil, clinstatErrors.NewModelError("dataset.ReadCSV", "no header row", clinstatErrors.ErrEmptyData)
	}

	names := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(names) {
			return nil, clinstatErrors.NewDimensionError("dataset.ReadCSV", len(names), len(record), 1)
		}
		row := make([]float64, len(record))
		for j, cell := range record {
			v, perr := strconv.ParseFloat(cell, 64)
			if perr != nil {
				return nil, clinstatErrors.Wrapf(perr,
					"dataset.ReadCSV: row %d, column %q: cannot parse %q", i+2, names[j], cell)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return New(names, rows)
}

// Open reads a comma-separated table from a file on disk.
func Open(path string) (_ *Table, err error) {
	defer clinstatErrors.Recover(&err, "dataset.Open")

	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return nil, clinstatErrors.Wrap(err, "dataset.Open: open failed")
	}
	defer func() { _ = file.Close() }()

	tbl, err := ReadCSV(file)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("dataset")
	logger.Info("Table loaded",
		log.ComponentKey, "dataset",
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, tbl.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"path", path,
	)
	return tbl, nil
}
