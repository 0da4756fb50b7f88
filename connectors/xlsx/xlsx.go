package xlsx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"calls-dashboard/domain/calls"
	dc "calls-dashboard/domain/config"

	"github.com/xuri/excelize/v2"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrMissingColumn = errors.New("missing column")
	ErrBadDate       = errors.New("bad call date")
	ErrNoHeader      = errors.New("no header row")
)

// dateLayouts are tried in order for date cells stored as text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/06",
	"01-02-06",
	"2006/01/02",
}

// ReadFile ingests the workbook at path.
func ReadFile(path string, cfg dc.Ingest) (calls.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return calls.Table{}, err
	}
	defer f.Close()
	t, err := Read(f, cfg)
	if err != nil {
		return calls.Table{}, err
	}
	t.Source = path
	return t, nil
}

// Read parses the call sheet of a workbook into a Table.
// Either the whole sheet is ingested or an error is returned.
func Read(r io.Reader, cfg dc.Ingest) (calls.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return calls.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(cfg.Sheet); err != nil || idx < 0 {
		return calls.Table{}, fmt.Errorf("%w: %q (have %s)", ErrSheetNotFound, cfg.Sheet, strings.Join(f.GetSheetList(), ", "))
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows, err := f.GetRows(cfg.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return calls.Table{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return calls.Table{}, fmt.Errorf("%w in sheet %q", ErrNoHeader, cfg.Sheet)
	}

	idx := indexMap(rows[0])
	cols := cfg.Columns
	required := []string{cols.CallDate, cols.CallerName, cols.CustomerCaller, cols.Justified}
	for _, col := range required {
		if _, ok := idx[normalize(col)]; !ok {
			return calls.Table{}, fmt.Errorf("%w %q in sheet %q", ErrMissingColumn, col, cfg.Sheet)
		}
	}
	dateIdx := idx[normalize(cols.CallDate)]
	callerIdx := idx[normalize(cols.CallerName)]
	siteIdx := idx[normalize(cols.CustomerCaller)]
	justIdx := idx[normalize(cols.Justified)]

	codes := cfg.CodeByName()
	out := make([]calls.CallRecord, 0, len(rows)-1)
	blankDates := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		raw := cell(row, dateIdx)
		if raw == "" {
			blankDates++
			continue
		}
		at, err := parseDate(raw, date1904)
		if err != nil {
			// i is zero-based; sheet rows are one-based
			return calls.Table{}, fmt.Errorf("%w %q at row %d", ErrBadDate, raw, i+1)
		}
		site := cell(row, siteIdx)
		out = append(out, calls.CallRecord{
			CallDate:       at,
			CallerName:     cell(row, callerIdx),
			CustomerCaller: site,
			CustomerCode:   codes[site],
			Justified:      cell(row, justIdx),
		})
	}
	if blankDates > 0 {
		slog.Warn("xlsx.blank_dates", "sheet", cfg.Sheet, "skipped", blankDates)
	}
	return calls.Table{Records: out, LoadedAt: time.Now()}, nil
}

func parseDate(raw string, date1904 bool) (time.Time, error) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, date1904)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		k := normalize(h)
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// cell tolerates short rows: excelize drops trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
