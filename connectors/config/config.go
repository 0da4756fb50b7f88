package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	dc "calls-dashboard/domain/config"

	lo "github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path on top of the built-in defaults.
func Load(path string) (*dc.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := dc.Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return &c, nil
}

// Resolve loads the file named by CONFIG_PATH (or ./config.yml). A missing file
// falls back to the defaults; any other problem is returned.
func Resolve() (*dc.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config.defaults", "path", path)
		d := dc.Default()
		return &d, nil
	}
	return c, err
}

// Validate checks the invariants the aggregation relies on.
func Validate(c dc.Config) error {
	if strings.TrimSpace(c.Ingest.Sheet) == "" {
		return errors.New("ingest.sheet is required")
	}
	cols := c.Ingest.Columns
	for name, v := range map[string]string{
		"call_date":       cols.CallDate,
		"caller_name":     cols.CallerName,
		"customer_caller": cols.CustomerCaller,
		"justified":       cols.Justified,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("ingest.columns.%s is required", name)
		}
	}
	if len(c.Ingest.Customers) == 0 {
		return errors.New("ingest.customers must not be empty")
	}
	codes := c.Ingest.Codes()
	if lo.Contains(codes, "") {
		return errors.New("ingest.customers: empty code")
	}
	if dup := lo.FindDuplicates(codes); len(dup) > 0 {
		return fmt.Errorf("ingest.customers: duplicate codes %v", dup)
	}
	if lo.Contains(codes, c.Chart.UnjustifiedLabel) {
		return fmt.Errorf("chart.unjustified_label %q collides with a customer code", c.Chart.UnjustifiedLabel)
	}
	if c.Chart.UnjustifiedLabel == "" {
		return errors.New("chart.unjustified_label is required")
	}
	if c.Chart.TopN < 1 {
		return errors.New("chart.top_n must be at least 1")
	}
	if c.Chart.DefaultMonths < 1 {
		return errors.New("chart.default_months must be at least 1")
	}
	if c.Chart.Width < 1 || c.Chart.Height < 1 {
		return errors.New("chart.width and chart.height must be positive")
	}
	return nil
}
