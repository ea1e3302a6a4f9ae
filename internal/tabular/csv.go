package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// ReadCSV tokenizes a CSV export into rows. Rows may have different lengths
// and cells are trimmed. Empty lines do not produce rows.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(rows) == 0 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// WriteCSV writes rows as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
