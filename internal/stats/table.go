package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadMetricColumns reads the named numeric columns from a scores CSV.
// Rows with any missing or unparsable value in the selected column set are
// dropped before analysis.
// Parameters:
//   - path: scores CSV path.
//   - columns: metric column names to select.
//
// Returns:
//   - [][]float64: complete rows, values in column order.
//   - error: non-nil when the file is unreadable or a column is absent.
func LoadMetricColumns(path string, columns []string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scores CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q not found in %s", name, path)
		}
	}

	var rows [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make([]float64, len(columns))
		complete := true
		for i, j := range idx {
			if j >= len(record) {
				complete = false
				break
			}
			raw := strings.TrimSpace(record[j])
			if raw == "" {
				complete = false
				break
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
			row[i] = v
		}
		if complete {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
