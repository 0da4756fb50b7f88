package csv

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"calls-dashboard/domain/calls"
)

// Header of the long-form export.
var Header = []string{"caller", "category", "count"}

// WriteRowsFile writes rows as CSV at path, creating parent directories.
func WriteRowsFile(path string, rows []calls.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteRows(f, rows)
}

// WriteRows writes the long-form chart rows: caller, category, count.
func WriteRows(out io.Writer, rows []calls.Row) error {
	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Caller, r.Category, strconv.Itoa(r.Count)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
