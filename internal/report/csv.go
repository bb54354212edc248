// Package report turns measurement results into CSV files, JSON documents
// and console tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tsawler/bias"
)

// File names written by SaveCSV.
const (
	DemographicFile  = "demographic_stats.csv"
	CooccurrenceFile = "cooccurrence_matrix.csv"
)

// WriteDemographicCSV writes one row per demographic group under a
// "demographic_group,values" header.
func WriteDemographicCSV(w io.Writer, stats bias.DemographicStats) error {
	return writeTableCSV(w, stats.Table())
}

// WriteCooccurrenceCSV writes the dense matrix with the target group name as
// the index header, one column per demographic group and one row per target
// term.
func WriteCooccurrenceCSV(w io.Writer, m *bias.CooccurrenceMatrix) error {
	if m == nil {
		return fmt.Errorf("write co-occurrence CSV: nil matrix")
	}
	return writeTableCSV(w, m.Table())
}

func writeTableCSV(w io.Writer, t bias.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{t.Name}, t.ColLabels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for r, row := range t.Rows() {
		record := make([]string, 0, len(row)+1)
		record = append(record, t.RowLabels[r])
		for _, v := range row {
			record = append(record, strconv.Itoa(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row %q: %w", t.RowLabels[r], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes both result tables into dir, creating it when needed, and
// returns the written paths.
func SaveCSV(dir string, res *bias.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	demoPath := filepath.Join(dir, DemographicFile)
	if err := writeFile(demoPath, func(w io.Writer) error {
		return WriteDemographicCSV(w, res.Demographics)
	}); err != nil {
		return nil, err
	}

	coocPath := filepath.Join(dir, CooccurrenceFile)
	if err := writeFile(coocPath, func(w io.Writer) error {
		return WriteCooccurrenceCSV(w, res.Cooccurrence)
	}); err != nil {
		return nil, err
	}

	return []string{demoPath, coocPath}, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
