package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadColumn returns the values of column from a CSV stream with a header row.
// A UTF-8 BOM on the header is ignored.
func ReadColumn(r io.Reader, column string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	var out []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if col < len(rec) {
			out = append(out, rec[col])
		}
	}
	return out, nil
}

// ReadColumnFile opens path and calls ReadColumn.
func ReadColumnFile(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus csv: %w", err)
	}
	defer f.Close()
	return ReadColumn(f, column)
}
