// Package report turns a sizing result into a bill of materials and renders
// it as CSV or terminal text.
package report

import (
	"fmt"
	"math"

	"github.com/Agrid-Dev/solarsizer/internal/catalog"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// Row is one bill-of-materials line. Quantities are given for the full
// system and for the critical backup system.
type Row struct {
	Item        string `json:"item"`
	Model       string `json:"model"`
	QtyFull     int    `json:"qty_full"`
	QtyCritical int    `json:"qty_critical"`
	Notes       string `json:"notes"`
}

type BillOfMaterials struct {
	Rows []Row `json:"rows"`
}

// Build lists panels, batteries, charge controller, inverter and
// balance-of-system for both subsystems. A subsystem without energy gets no
// parts.
func Build(cfg sizing.SystemConfig, res sizing.Result, sel catalog.Selection) (BillOfMaterials, error) {
	full := res.Full.EnergyWh > 0
	critical := res.Critical.EnergyWh > 0

	batteryNotes := "Series/parallel per system voltage"
	if cfg.Chemistry == sizing.ChemistryLithium {
		batteryNotes += ", include BMS for lithium"
	}
	batteryNotes = withNote(batteryNotes, sel.Battery)
	panelNotes := withNote("Check Voc, string arrangement", sel.Panel)

	controllerUnits, err := units("charge_controller_units", sel.ChargeController)
	if err != nil {
		return BillOfMaterials{}, err
	}
	inverterUnits, err := units("inverter_units", sel.Inverter)
	if err != nil {
		return BillOfMaterials{}, err
	}

	return BillOfMaterials{Rows: []Row{
		{
			Item:        fmt.Sprintf("PV panels (%g W)", cfg.PanelRatedWatts),
			Model:       sel.Panel.SKU.Model,
			QtyFull:     res.Full.PV.PanelCount,
			QtyCritical: res.Critical.PV.PanelCount,
			Notes:       panelNotes,
		},
		{
			Item:        fmt.Sprintf("Battery modules (%g Ah @ %d V)", cfg.BatteryUnitCapacityAh, cfg.SystemVoltage),
			Model:       sel.Battery.SKU.Model,
			QtyFull:     res.Full.Battery.Count,
			QtyCritical: res.Critical.Battery.Count,
			Notes:       batteryNotes,
		},
		{
			Item:        "MPPT Charge Controller",
			Model:       sel.ChargeController.SKU.Model,
			QtyFull:     when(full, controllerUnits),
			QtyCritical: when(critical, controllerUnits),
			Notes:       fmt.Sprintf("Must support ≥ %.0fA, check voltage window", math.Ceil(res.ChargeController.Amps)),
		},
		{
			Item:        "Inverter (pure sine)",
			Model:       sel.Inverter.SKU.Model,
			QtyFull:     when(full, inverterUnits),
			QtyCritical: when(critical, inverterUnits),
			Notes:       fmt.Sprintf("Continuous ≥ %.0fW, surge ≥ %.0fW", math.Ceil(res.Inverter.Watts), math.Ceil(res.Inverter.SurgeWatts)),
		},
		{
			Item:        "Cables, Breakers, Mounting, Fuses",
			QtyFull:     when(full, 1),
			QtyCritical: when(critical, 1),
			Notes:       "Use correctly sized cables, DC breakers, fuses per local code",
		},
	}}, nil
}

// units is how many of the matched SKU cover the target. An undersized
// match is paralleled, up to sizing.MaxUnits.
func units(field string, m catalog.Match) (int, error) {
	if m.SKU.Rating <= 0 || m.Target <= m.SKU.Rating {
		return 1, nil
	}
	n := math.Ceil(m.Target / m.SKU.Rating)
	if !(n <= sizing.MaxUnits) {
		return 0, &sizing.InputDataError{Index: -1, Field: field, Value: n, Err: sizing.ErrOutOfRange}
	}
	return int(n), nil
}

// withNote appends the catalog's reason for a part that differs from the
// one the quantities assume.
func withNote(notes string, m catalog.Match) string {
	if m.Note == "" {
		return notes
	}
	return notes + "; " + m.Note
}

func when(cond bool, n int) int {
	if cond {
		return n
	}
	return 0
}

// Summary returns the headline figures of a run, one per line.
func Summary(cfg sizing.SystemConfig, res sizing.Result) []string {
	return []string{
		fmt.Sprintf("Total energy: %.0f Wh/day", res.Energy.TotalWh),
		fmt.Sprintf("Critical energy: %.0f Wh/day", res.Energy.CriticalWh),
		fmt.Sprintf("System voltage: %d V", cfg.SystemVoltage),
		fmt.Sprintf("Battery chemistry: %s", cfg.Chemistry),
		fmt.Sprintf("Battery (full): %.1f Ah -> %d x %g Ah", res.Full.Battery.RequiredAh, res.Full.Battery.Count, cfg.BatteryUnitCapacityAh),
		fmt.Sprintf("Battery (critical): %.1f Ah -> %d x %g Ah", res.Critical.Battery.RequiredAh, res.Critical.Battery.Count, cfg.BatteryUnitCapacityAh),
		fmt.Sprintf("PV array (full): %.0f W -> %d x %g W", res.Full.PV.RequiredWatts, res.Full.PV.PanelCount, cfg.PanelRatedWatts),
		fmt.Sprintf("PV array (critical): %.0f W -> %d x %g W", res.Critical.PV.RequiredWatts, res.Critical.PV.PanelCount, cfg.PanelRatedWatts),
		fmt.Sprintf("Inverter continuous: %.0f W, surge: %.0f W", res.Inverter.Watts, res.Inverter.SurgeWatts),
		fmt.Sprintf("Controller current: %.1f A", res.ChargeController.Amps),
	}
}
