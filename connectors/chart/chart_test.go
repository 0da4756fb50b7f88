package chart

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"calls-dashboard/domain/calls"
	dc "calls-dashboard/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func style() Style {
	c := dc.Default()
	return Style{
		Categories: calls.NewDomain(c).Categories(),
		Colors:     c.Colors(),
		Width:      600,
		Height:     300,
	}
}

func TestRenderPNG(t *testing.T) {
	res := calls.Result{
		Title:   "Top 20 Callers - 2024-01",
		Callers: []string{"A", "B"},
		Rows: []calls.Row{
			{Caller: "A", Category: "PIA", Count: 10},
			{Caller: "A", Category: "Unjustified Calls", Count: 5},
			{Caller: "B", Category: "ATL", Count: 3},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, res, style()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Positive(t, img.Bounds().Dy())
}

func TestRenderPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	res := calls.Aggregate(calls.Table{}, nil, calls.NewDomain(dc.Default()))
	require.NoError(t, RenderPNG(&buf, res, style()))
	_, err := png.Decode(&buf)
	require.NoError(t, err)
}

func TestBuildStacksEveryCategory(t *testing.T) {
	res := calls.Result{
		Title:   "t",
		Callers: []string{"A"},
		Rows:    []calls.Row{{Caller: "A", Category: "TAC", Count: 2}},
	}
	p, err := build(res, style())
	require.NoError(t, err)
	assert.Equal(t, "t", p.Title.Text)
	assert.True(t, p.Legend.Top)

	assert.Zero(t, p.Y.Min)
	assert.GreaterOrEqual(t, p.Y.Max, 2.0)
}

func TestBuildRejectsUnknownColour(t *testing.T) {
	st := style()
	st.Colors["ATL"] = "not-a-colour"
	res := calls.Result{Title: "t", Callers: []string{"A"}, Rows: []calls.Row{{Caller: "A", Category: "ATL", Count: 1}}}
	_, err := build(res, st)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("blue")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 0xff, A: 0xff}, c)

	c, err = ParseColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0, A: 0xff}, c)

	_, err = ParseColor("")
	assert.NoError(t, err)

	for _, bad := range []string{"#12345", "#zzzzzz", "bluish"} {
		_, err = ParseColor(bad)
		assert.Error(t, err, bad)
	}
}
