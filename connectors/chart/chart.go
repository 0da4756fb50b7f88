package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"calls-dashboard/domain/calls"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style controls how a Result is drawn.
type Style struct {
	Categories []string
	Colors     map[string]string // category -> colour name or #rrggbb
	Width      int
	Height     int
}

// RenderPNG draws res as a stacked bar chart, one bar per caller and one
// segment per category.
func RenderPNG(w io.Writer, res calls.Result, st Style) error {
	p, err := build(res, st)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Points(float64(st.Width)), vg.Points(float64(st.Height)), "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func build(res calls.Result, st Style) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = res.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Caller"
	p.Y.Label.Text = "Number of Calls"
	if res.Placeholder || len(res.Callers) == 0 {
		return p, nil
	}

	pos := make(map[string]int, len(res.Callers))
	for i, c := range res.Callers {
		pos[c] = i
	}
	series := make(map[string]plotter.Values, len(st.Categories))
	for _, cat := range st.Categories {
		series[cat] = make(plotter.Values, len(res.Callers))
	}
	for _, r := range res.Rows {
		if vs, ok := series[r.Category]; ok {
			vs[pos[r.Caller]] = float64(r.Count)
		}
	}

	var below *plotter.BarChart
	for _, cat := range st.Categories {
		bars, err := plotter.NewBarChart(series[cat], vg.Points(barWidth(st.Width, len(res.Callers))))
		if err != nil {
			return nil, fmt.Errorf("bars %s: %w", cat, err)
		}
		c, err := ParseColor(st.Colors[cat])
		if err != nil {
			return nil, fmt.Errorf("colour of %s: %w", cat, err)
		}
		bars.Color = c
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(cat, bars)
		below = bars
	}
	p.Legend.Top = true
	p.NominalX(res.Callers...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())
	return p, nil
}

func barWidth(width, n int) float64 {
	w := float64(width) / float64(n+1) * 0.6
	return math.Max(4, math.Min(w, 40))
}

// ParseColor accepts an SVG colour name ("blue") or a hex value ("#0000ff").
// An empty string yields grey.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return colornames.Gray, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("unknown colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("unknown colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
