package calls

import (
	"sort"
	"time"

	dc "calls-dashboard/domain/config"

	lo "github.com/samber/lo"
)

// MonthLayout is the format of a month key.
const MonthLayout = "2006-01"

// CallRecord is one row of the first-line call sheet.
type CallRecord struct {
	CallDate       time.Time
	CallerName     string
	CustomerCaller string
	CustomerCode   string // empty when the site is not in the mapping
	Justified      string
}

// Month returns the year-month key of the call.
func (r CallRecord) Month() string {
	return r.CallDate.Format(MonthLayout)
}

// Table is a fully ingested upload. It is replaced as a whole, never patched.
type Table struct {
	Records  []CallRecord
	Source   string
	LoadedAt time.Time
}

// Months returns the distinct month keys, most recent first.
func (t Table) Months() []string {
	months := lo.Uniq(lo.Map(t.Records, func(r CallRecord, _ int) string { return r.Month() }))
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// DefaultSelection returns the n most recent months.
func (t Table) DefaultSelection(n int) []string {
	months := t.Months()
	if n < len(months) {
		months = months[:n]
	}
	return months
}

// Row is one long-form chart row.
type Row struct {
	Caller   string `json:"caller"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Result is the chart-ready output of Aggregate.
type Result struct {
	Title       string   `json:"title"`
	Placeholder bool     `json:"placeholder"`
	Callers     []string `json:"callers"`
	Rows        []Row    `json:"rows"`
}

// Domain is the fixed set of chart categories.
type Domain struct {
	Codes            []string
	Unjustified      string
	UnjustifiedValue string
	TopN             int
}

// NewDomain builds the category domain from configuration.
func NewDomain(c dc.Config) Domain {
	return Domain{
		Codes:            c.Ingest.Codes(),
		Unjustified:      c.Chart.UnjustifiedLabel,
		UnjustifiedValue: c.Chart.UnjustifiedValue,
		TopN:             c.Chart.TopN,
	}
}

// Categories returns the customer codes followed by the unjustified label.
func (d Domain) Categories() []string {
	res := make([]string, 0, len(d.Codes)+1)
	res = append(res, d.Codes...)
	return append(res, d.Unjustified)
}
