package excel

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ReadRunValues loads the simulated outcomes back from a workbook written by
// Renderer. Rows with an unparsable outcome are reported as errors.
func ReadRunValues(r io.Reader, config WorkbookConfig) ([]float64, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.RunSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", config.RunSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", config.RunSheet)
	}

	values := make([]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: missing outcome", i+2)
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		values = append(values, v)
	}
	return values, nil
}
