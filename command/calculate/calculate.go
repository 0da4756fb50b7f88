package calculate

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"calls-dashboard/connectors/chart"
	cfgconn "calls-dashboard/connectors/config"
	ccsv "calls-dashboard/connectors/csv"
	"calls-dashboard/connectors/xlsx"
	"calls-dashboard/domain/calls"

	lo "github.com/samber/lo"
)

// Run executes the calculate command: ingest a workbook, aggregate the selected
// months and write the long-form rows under data/.
//
// Usage:
//
//	calls-dashboard calculate -file calls.xlsx [-month 2024-01,2024-02] [-out data/top_callers.csv] [-png data/top_callers.png] [-list]
func Run(args []string) error {
	fs := flag.NewFlagSet("calculate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "workbook (.xlsx) containing the call sheet")
	monthFlag := fs.String("month", "", "comma-separated months (YYYY-MM); defaults to the most recent ones")
	out := fs.String("out", filepath.Join("data", "top_callers.csv"), "CSV output path")
	pngOut := fs.String("png", "", "also render the chart to this PNG path (optional)")
	list := fs.Bool("list", false, "print the available months and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		slog.Error("calculate.validation.error", "reason", "missing file")
		return errors.New("calculate: -file is required")
	}

	cfg, err := cfgconn.Resolve()
	if err != nil {
		return err
	}

	t, err := xlsx.ReadFile(*file, cfg.Ingest)
	if err != nil {
		slog.Error("calculate.ingest.error", "file", *file, "error", err)
		return err
	}
	if *list {
		for _, m := range t.Months() {
			fmt.Println(m)
		}
		return nil
	}

	months, err := selectMonths(*monthFlag, t, cfg.Chart.DefaultMonths)
	if err != nil {
		return err
	}
	res := calls.Aggregate(t, months, calls.NewDomain(*cfg))
	if res.Placeholder {
		return errors.New("calculate: no month to aggregate")
	}

	if err := ccsv.WriteRowsFile(*out, res.Rows); err != nil {
		return err
	}
	if *pngOut != "" {
		if err := writePNG(*pngOut, res, chart.Style{
			Categories: calls.NewDomain(*cfg).Categories(),
			Colors:     cfg.Colors(),
			Width:      cfg.Chart.Width,
			Height:     cfg.Chart.Height,
		}); err != nil {
			return err
		}
	}

	slog.Info("calculate.done", "title", res.Title, "callers", len(res.Callers), "rows", len(res.Rows), "out", *out)
	return nil
}

func selectMonths(flagValue string, t calls.Table, defaultN int) ([]string, error) {
	if strings.TrimSpace(flagValue) == "" {
		return t.DefaultSelection(defaultN), nil
	}
	months := lo.Uniq(lo.Compact(lo.Map(strings.Split(flagValue, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))
	for _, m := range months {
		if _, err := time.Parse(calls.MonthLayout, m); err != nil {
			return nil, fmt.Errorf("calculate: invalid month %q (want YYYY-MM)", m)
		}
	}
	return months, nil
}

func writePNG(path string, res calls.Result, st chart.Style) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.RenderPNG(f, res, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
