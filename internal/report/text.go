package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

var (
	accent = lipgloss.Color("#F59E0B")
	muted  = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	criticalCell = cellStyle.Foreground(accent)
)

// chartWidth is the bar length of the top-loads chart in text reports.
const chartWidth = 40

// Document is everything a text report shows.
type Document struct {
	Title    string
	Loads    []sizing.Load
	Summary  []string
	BOM      BillOfMaterials
	TopLoads []sizing.RankedLoad
}

// WriteText renders doc for a terminal: load list, summary, bill of
// materials and the top-loads chart.
func WriteText(w io.Writer, doc Document) error {
	title := doc.Title
	if title == "" {
		title = "Solar System Sizing Report"
	}

	var out []string
	out = append(out, titleStyle.Render(title))

	out = append(out, sectionStyle.Render("Appliance / Load List"), loadsTable(doc.Loads))

	out = append(out, sectionStyle.Render("System Summary"))
	out = append(out, doc.Summary...)

	out = append(out, sectionStyle.Render("Bill of Materials"), bomTable(doc.BOM))

	for _, s := range out {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}

	if len(doc.TopLoads) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return WriteTopLoadsChart(w, doc.TopLoads, chartWidth)
	}
	return nil
}

func loadsTable(loads []sizing.Load) string {
	t := newTable("Name", "Power (W)", "Qty", "Hours/day", "Wh/day", "Critical")
	for _, l := range loads {
		crit := ""
		if l.Critical {
			crit = "yes"
		}
		t.Row(
			l.Name,
			strconv.FormatFloat(l.PowerWatts, 'f', -1, 64),
			strconv.Itoa(l.Units()),
			strconv.FormatFloat(l.HoursPerDay, 'f', -1, 64),
			fmt.Sprintf("%.0f", l.EnergyWhPerDay()),
			crit,
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(loads) && loads[row].Critical {
			return criticalCell
		}
		return cellStyle
	})
	return t.Render()
}

func bomTable(bom BillOfMaterials) string {
	t := newTable("Item", "Model", "Qty (Full)", "Qty (Critical)", "Notes")
	for _, r := range bom.Rows {
		t.Row(r.Item, r.Model, strconv.Itoa(r.QtyFull), strconv.Itoa(r.QtyCritical), r.Notes)
	}
	return t.Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
