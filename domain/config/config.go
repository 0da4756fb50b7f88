package config

import "time"

// Config represents the structure of config.yml used by the dashboard.
// Zero values are replaced by Default() when loaded through connectors/config.
type Config struct {
	Ingest   Ingest   `yaml:"ingest"`
	Chart    Chart    `yaml:"chart"`
	Sessions Sessions `yaml:"sessions"`
}

// Ingest describes where call records live inside an uploaded workbook.
type Ingest struct {
	Sheet     string     `yaml:"sheet"`
	Columns   Columns    `yaml:"columns"`
	Customers []Customer `yaml:"customers"`
}

// Columns holds the header names of the required columns.
type Columns struct {
	CallDate       string `yaml:"call_date"`
	CallerName     string `yaml:"caller_name"`
	CustomerCaller string `yaml:"customer_caller"`
	Justified      string `yaml:"justified"`
}

// Customer maps a site name as written in the sheet to its short code.
type Customer struct {
	Name  string `yaml:"name"`
	Code  string `yaml:"code"`
	Color string `yaml:"color"`
}

type Chart struct {
	TopN             int    `yaml:"top_n"`
	DefaultMonths    int    `yaml:"default_months"`
	UnjustifiedLabel string `yaml:"unjustified_label"`
	UnjustifiedValue string `yaml:"unjustified_value"`
	UnjustifiedColor string `yaml:"unjustified_color"`
	Width            int    `yaml:"width"`
	Height           int    `yaml:"height"`
}

type Sessions struct {
	TTL time.Duration `yaml:"ttl"`
	Max int           `yaml:"max"`
}

// Default returns the configuration the dashboard ships with.
func Default() Config {
	return Config{
		Ingest: Ingest{
			Sheet: "first line call",
			Columns: Columns{
				CallDate:       "Call Date",
				CallerName:     "Caller name",
				CustomerCaller: "Customer (Caller)",
				Justified:      "Justified? (24/7)",
			},
			Customers: []Customer{
				{Name: "NewCold | WHS Atlanta", Code: "ATL", Color: "blue"},
				{Name: "NewCold | WHS Lebanon", Code: "LEB", Color: "yellow"},
				{Name: "NewCold | WHS Piacenza", Code: "PIA", Color: "green"},
				{Name: "NewCold | WHS Tacoma", Code: "TAC", Color: "purple"},
			},
		},
		Chart: Chart{
			TopN:             20,
			DefaultMonths:    3,
			UnjustifiedLabel: "Unjustified Calls",
			UnjustifiedValue: "No",
			UnjustifiedColor: "red",
			Width:            1200,
			Height:           600,
		},
		Sessions: Sessions{
			TTL: 2 * time.Hour,
			Max: 64,
		},
	}
}

// Codes returns the customer codes in configuration order.
func (i Ingest) Codes() []string {
	res := make([]string, 0, len(i.Customers))
	for _, c := range i.Customers {
		res = append(res, c.Code)
	}
	return res
}

// CodeByName returns the site-name to customer-code lookup table.
func (i Ingest) CodeByName() map[string]string {
	m := make(map[string]string, len(i.Customers))
	for _, c := range i.Customers {
		m[c.Name] = c.Code
	}
	return m
}

// Colors returns the colour of every chart category, keyed by category label.
func (c Config) Colors() map[string]string {
	m := make(map[string]string, len(c.Ingest.Customers)+1)
	for _, cu := range c.Ingest.Customers {
		m[cu.Code] = cu.Color
	}
	m[c.Chart.UnjustifiedLabel] = c.Chart.UnjustifiedColor
	return m
}
