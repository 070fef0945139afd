package export

import (
	"fmt"

	"github.com/roman-kulish/gnss-reflect/internal/reflection"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteXLSX saves samples into a single sheet workbook at path. Numbers are
// stored as numeric cells; missing values are left blank.
func WriteXLSX(path, sheet string, samples []reflection.Sample) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		f.SetSheetName(defaultSheet, sheet)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err = f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var cell string
	for i := range samples {
		if cell, err = excelize.CoordinatesToCellName(1, i+2); err != nil {
			return err
		}
		row := values(&samples[i])
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err = f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
