package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"regharvest/pkg/model"
)

// WriteCSV writes the final listing as a ;-delimited file with a UTF-8
// BOM, the dialect Spanish-locale Excel opens cleanly. Returns the
// number of data rows written.
func WriteCSV(path string, centers []model.Center) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return 0, err
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"codigo", "nombre", "email"}); err != nil {
		return 0, err
	}
	for _, c := range centers {
		if err := w.Write([]string{c.Code, c.Name, c.Email}); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return len(centers), nil
}
