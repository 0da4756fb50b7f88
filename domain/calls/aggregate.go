package calls

import (
	"fmt"
	"sort"
	"strings"

	lo "github.com/samber/lo"
)

// PlaceholderTitle is shown when no month is selected.
const PlaceholderTitle = "Select a month to display data"

// Aggregate turns raw call records into long-form chart rows for the selected months.
//
// Callers are ranked by their number of calls in the selection and only the
// d.TopN largest are kept; equal counts keep the order in which the callers first
// appear. Each retained caller gets exactly one row per category of d, zero-filled.
// Rows are ordered caller by caller, following the ranking.
func Aggregate(t Table, months []string, d Domain) Result {
	if len(months) == 0 {
		return Result{Title: PlaceholderTitle, Placeholder: true, Callers: []string{}, Rows: []Row{}}
	}
	selected := lo.SliceToMap(months, func(m string) (string, struct{}) { return m, struct{}{} })

	filtered := lo.Filter(t.Records, func(r CallRecord, _ int) bool {
		_, ok := selected[r.Month()]
		return ok && r.CallerName != ""
	})

	names := lo.Map(filtered, func(r CallRecord, _ int) string { return r.CallerName })
	counts := lo.CountValues(names)
	ranked := lo.Uniq(names)
	sort.SliceStable(ranked, func(i, j int) bool { return counts[ranked[i]] > counts[ranked[j]] })
	if d.TopN > 0 && len(ranked) > d.TopN {
		ranked = ranked[:d.TopN]
	}

	cells := make(map[string]map[string]int, len(ranked))
	for _, name := range ranked {
		cells[name] = make(map[string]int, len(d.Codes)+1)
	}
	codes := lo.SliceToMap(d.Codes, func(c string) (string, struct{}) { return c, struct{}{} })
	for _, r := range filtered {
		cell, ok := cells[r.CallerName]
		if !ok {
			continue
		}
		if _, known := codes[r.CustomerCode]; known {
			cell[r.CustomerCode]++
		}
		if isUnjustified(r.Justified, d.UnjustifiedValue) {
			cell[d.Unjustified]++
		}
	}

	categories := d.Categories()
	rows := make([]Row, 0, len(ranked)*len(categories))
	for _, name := range ranked {
		for _, cat := range categories {
			rows = append(rows, Row{Caller: name, Category: cat, Count: cells[name][cat]})
		}
	}
	return Result{
		Title:   Title(months, d.TopN),
		Callers: ranked,
		Rows:    rows,
	}
}

// Title lists the selected months in selection order.
func Title(months []string, topN int) string {
	if len(months) == 0 {
		return PlaceholderTitle
	}
	return fmt.Sprintf("Top %d Callers - %s", topN, strings.Join(months, ", "))
}

func isUnjustified(flag, value string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), value)
}

