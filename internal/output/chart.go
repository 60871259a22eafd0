package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/atikulmunna/dnslog/internal/aggregator"
)

// DefaultBarWidth is the length of the longest bar in a chart.
const DefaultBarWidth = 40

// RenderChart draws series as horizontal bars followed by the totals line.
func RenderChart(w io.Writer, s aggregator.Series, stats aggregator.Stats, p Palette, width int) error {
	if width <= 0 {
		width = DefaultBarWidth
	}

	title := "Изменения по часам"
	if s.Period == aggregator.PeriodDay {
		title = "Изменения по дням"
	}
	if _, err := fmt.Fprintln(w, p.Muted.Render(title)); err != nil {
		return err
	}

	peak := 0
	for _, v := range s.Values {
		if v > peak {
			peak = v
		}
	}

	for i, label := range s.Labels {
		v := s.Values[i]
		n := 0
		if peak > 0 {
			n = v * width / peak
		}
		if v > 0 && n == 0 {
			n = 1
		}
		bar := p.Bar.Render(strings.Repeat("█", n))
		if _, err := fmt.Fprintf(w, "%-8s │%s %d\n", label, bar, v); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s %d  %s %s\n",
		p.Muted.Render("Всего изменений:"), stats.TotalChanges,
		p.Muted.Render("Пик активности:"), stats.PeakActivity)
	return err
}
