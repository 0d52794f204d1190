package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportPath returns `<dir>/<stem>-<unix seconds>.csv` for the driver list at `driversPath`.
func ExportPath(driversPath string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(driversPath), filepath.Ext(driversPath))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "drivers"
	}
	return filepath.Join(
		filepath.Dir(driversPath),
		fmt.Sprintf("%s-%d.csv", stem, now.Unix()),
	)
}

func WriteCsv(out io.Writer, summaries []Summary) error {
	writer := csv.NewWriter(out)
	err := writer.Write(CsvHeader)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		err = writer.Write(s.Fields())
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportCsv writes the summaries to a new file at `path`, it will not overwrite an existing file.
func ExportCsv(path string, summaries []Summary) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteCsv(f, summaries)
}
