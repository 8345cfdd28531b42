package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// logScaleRatio is the max/min spread above which bars are drawn on a
// logarithmic axis.
const logScaleRatio = 100

// WriteTopLoadsChart draws ranked loads as horizontal bars at most width
// characters long. Nothing is written for an empty ranking.
func WriteTopLoadsChart(w io.Writer, ranked []sizing.RankedLoad, width int) error {
	if len(ranked) == 0 {
		return nil
	}
	width = max(width, 1)

	hi, lo := ranked[0].EnergyWh, ranked[0].EnergyWh
	nameWidth := 0
	for _, r := range ranked {
		hi = max(hi, r.EnergyWh)
		lo = min(lo, r.EnergyWh)
		nameWidth = max(nameWidth, len([]rune(r.Name)))
	}
	logScale := lo > 0 && hi/lo > logScaleRatio

	title := fmt.Sprintf("Top %d energy consuming appliances (Wh/day)", len(ranked))
	if logScale {
		title += " [log scale]"
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	for _, r := range ranked {
		n := barLength(r.EnergyWh, hi, width, logScale)
		pad := strings.Repeat(" ", nameWidth-len([]rune(r.Name)))
		if _, err := fmt.Fprintf(w, "%s%s | %s %.0f\n", r.Name, pad, strings.Repeat("█", n), r.EnergyWh); err != nil {
			return err
		}
	}
	return nil
}

func barLength(v, hi float64, width int, logScale bool) int {
	if v <= 0 || hi <= 0 {
		return 0
	}
	frac := v / hi
	if logScale {
		frac = math.Log10(1+v) / math.Log10(1+hi)
	}
	return max(1, int(math.Round(frac*float64(width))))
}
