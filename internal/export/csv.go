package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roman-kulish/gnss-reflect/internal/reflection"
)

// WriteCSV writes samples with a header row. Missing values are empty cells.
func WriteCSV(w io.Writer, samples []reflection.Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	record := make([]string, len(Header))
	for i := range samples {
		for j, v := range values(&samples[i]) {
			record[j] = format(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
