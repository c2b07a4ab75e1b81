// Package chart renders small inline SVG charts for exported reports.
package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Defaults for report charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 5
)

// Series is one named set of bar values.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// Options customises Bars.
type Options struct {
	Title     string
	AxisColor string
	GridColor string
	Padding   float64
	TickCount int
	// TickFormat renders axis values; nil uses compact numbers.
	TickFormat func(float64) string
}

var palette = []string{"#6366f1", "#10b981", "#f59e0b", "#f43f5e"}

// Bars renders grouped bars, one group per label.
func Bars(width, height int, labels []string, series []Series, opts Options) (template.HTML, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("chart: labels required")
	}
	if len(series) == 0 {
		return "", fmt.Errorf("chart: at least one series required")
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return "", fmt.Errorf("chart: series %q has %d values for %d labels", s.Label, len(s.Values), len(labels))
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	pad := opts.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	tickFormat := opts.TickFormat
	if tickFormat == nil {
		tickFormat = compact
	}
	axis := fallback(opts.AxisColor, "#475569")
	grid := fallback(opts.GridColor, "#e2e8f0")

	plotW := float64(width) - 2*pad
	plotH := float64(height) - 2*pad
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}

	lo, hi := extent(series)
	scale := plotH / (hi - lo)
	zeroY := pad + plotH - (0-lo)*scale
	groupW := plotW / float64(len(labels))
	barW := groupW * 0.8 / float64(len(series))

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img">`, width, height)
	fmt.Fprintf(&b, `<title>%s</title>`, template.HTMLEscapeString(fallback(opts.Title, "Bar chart")))

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := pad + plotH - ratio*plotH
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5"/>`, pad, y, pad+plotW, y, grid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="9" text-anchor="end">%s</text>`,
			pad-4, y+3, axis, template.HTMLEscapeString(tickFormat(lo+(hi-lo)*ratio)))
	}
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>`, pad, zeroY, pad+plotW, zeroY, axis)

	for i, label := range labels {
		x0 := pad + float64(i)*groupW + groupW*0.1
		for j, s := range series {
			v := s.Values[i]
			h := math.Abs(v) * scale
			y := zeroY - h
			if v < 0 {
				y = zeroY
			}
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s %s</title></rect>`,
				x0+float64(j)*barW, y, barW, h, colorOf(s, j),
				template.HTMLEscapeString(s.Label), template.HTMLEscapeString(label))
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="9" text-anchor="middle">%s</text>`,
			pad+float64(i)*groupW+groupW/2, pad+plotH+12, axis, template.HTMLEscapeString(label))
	}

	legendX := pad
	for j, s := range series {
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="9" height="9" fill="%s"/>`, legendX, pad-18, colorOf(s, j))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="9">%s</text>`, legendX+12, pad-10, axis, template.HTMLEscapeString(s.Label))
		legendX += 90
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// extent returns the value range including zero, never empty.
func extent(series []Series) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1e-9 {
		hi = lo + 1
	}
	return lo, hi
}

func colorOf(s Series, i int) string {
	if s.Color != "" {
		return s.Color
	}
	return palette[i%len(palette)]
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
