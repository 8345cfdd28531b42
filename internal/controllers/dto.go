// Package controllers holds the wire format shared by the HTTP and MQTT
// surfaces.
package controllers

import (
	"bytes"
	"errors"

	"github.com/Agrid-Dev/solarsizer/internal/catalog"
	"github.com/Agrid-Dev/solarsizer/internal/planner"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/report"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// Error kinds reported to clients.
const (
	KindConfig  = "config"
	KindInput   = "input"
	KindRequest = "request"
)

type ErrorDTO struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Classify maps an error from the planner to the kind clients see.
// Anything that is neither a system nor a load problem is a malformed
// request.
func Classify(err error) string {
	switch {
	case errors.Is(err, sizing.ErrInvalidConfig):
		return KindConfig
	case errors.Is(err, sizing.ErrInvalidLoad):
		return KindInput
	default:
		return KindRequest
	}
}

func NewErrorDTO(err error) ErrorDTO {
	return ErrorDTO{Error: err.Error(), Kind: Classify(err)}
}

type SystemDTO struct {
	Chemistry             string  `json:"chemistry"`
	PanelRatedWatts       float64 `json:"panel_rated_watts"`
	SystemVoltage         int     `json:"system_voltage"`
	SunHoursPerDay        float64 `json:"sun_hours_per_day"`
	AutonomyDays          float64 `json:"autonomy_days"`
	PanelEfficiency       float64 `json:"panel_efficiency"`
	DeratingFactor        float64 `json:"derating_factor"`
	SafetyFactor          float64 `json:"safety_factor"`
	BatteryUnitCapacityAh float64 `json:"battery_unit_capacity_ah"`
}

func ToSystemDTO(c sizing.SystemConfig) SystemDTO {
	return SystemDTO{
		Chemistry:             c.Chemistry.String(),
		PanelRatedWatts:       c.PanelRatedWatts,
		SystemVoltage:         c.SystemVoltage,
		SunHoursPerDay:        c.SunHoursPerDay,
		AutonomyDays:          c.AutonomyDays,
		PanelEfficiency:       c.PanelEfficiency,
		DeratingFactor:        c.DeratingFactor,
		SafetyFactor:          c.SafetyFactor,
		BatteryUnitCapacityAh: c.BatteryUnitCapacityAh,
	}
}

type ChemistryDTO struct {
	Name                string  `json:"name"`
	DepthOfDischarge    float64 `json:"depth_of_discharge"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
}

// ToChemistryDTOs lists the table in name order.
func ToChemistryDTOs(t sizing.ChemistryTable) []ChemistryDTO {
	out := make([]ChemistryDTO, 0, len(t))
	for _, name := range t.Names() {
		p := t[name]
		out = append(out, ChemistryDTO{
			Name:                name.String(),
			DepthOfDischarge:    p.DepthOfDischarge,
			RoundTripEfficiency: p.RoundTripEfficiency,
		})
	}
	return out
}

type RankedLoadDTO struct {
	Name     string  `json:"name"`
	EnergyWh float64 `json:"energy_wh"`
	Critical bool    `json:"critical"`
}

type SubsystemDTO struct {
	EnergyWh          float64 `json:"energy_wh"`
	RequiredBatteryAh float64 `json:"required_battery_ah"`
	BatteryCount      int     `json:"battery_count"`
	BatteryBankWh     float64 `json:"battery_bank_wh"`
	BatteryUsableWh   float64 `json:"battery_usable_wh"`
	RequiredPVWatts   float64 `json:"required_pv_watts"`
	PanelCount        int     `json:"panel_count"`
	InstalledPVWatts  float64 `json:"installed_pv_watts"`
}

func toSubsystemDTO(s sizing.Subsystem) SubsystemDTO {
	return SubsystemDTO{
		EnergyWh:          s.EnergyWh,
		RequiredBatteryAh: s.Battery.RequiredAh,
		BatteryCount:      s.Battery.Count,
		BatteryBankWh:     s.Battery.BankWh,
		BatteryUsableWh:   s.Battery.UsableWh,
		RequiredPVWatts:   s.PV.RequiredWatts,
		PanelCount:        s.PV.PanelCount,
		InstalledPVWatts:  s.PV.InstalledWatts,
	}
}

type PartDTO struct {
	Model    string  `json:"model"`
	Rating   float64 `json:"rating"`
	Target   float64 `json:"target"`
	Adequate bool    `json:"adequate"`
	Note     string  `json:"note,omitempty"`
}

func toPartDTO(m catalog.Match) PartDTO {
	return PartDTO{Model: m.SKU.Model, Rating: m.SKU.Rating, Target: m.Target, Adequate: m.Adequate, Note: m.Note}
}

type PlanDTO struct {
	Name   string    `json:"name,omitempty"`
	System SystemDTO `json:"system"`

	TotalEnergyWh    float64 `json:"total_energy_wh"`
	CriticalEnergyWh float64 `json:"critical_energy_wh"`

	Full     SubsystemDTO `json:"full"`
	Critical SubsystemDTO `json:"critical"`

	InverterContinuousWatts float64 `json:"inverter_continuous_watts"`
	InverterWatts           float64 `json:"inverter_watts"`
	InverterSurgeWatts      float64 `json:"inverter_surge_watts"`
	ChargeControllerAmps    float64 `json:"charge_controller_amps"`

	TopLoads []RankedLoadDTO `json:"top_n_loads_by_energy"`

	Parts   map[string]PartDTO `json:"parts"`
	BOM     []report.Row       `json:"bom"`
	Summary []string           `json:"summary"`
}

func ToPlanDTO(p planner.Plan) PlanDTO {
	r := p.Result
	top := make([]RankedLoadDTO, len(r.TopLoads))
	for i, l := range r.TopLoads {
		top[i] = RankedLoadDTO{Name: l.Name, EnergyWh: l.EnergyWh, Critical: l.Critical}
	}
	return PlanDTO{
		Name:                    p.Name,
		System:                  ToSystemDTO(p.System),
		TotalEnergyWh:           r.Energy.TotalWh,
		CriticalEnergyWh:        r.Energy.CriticalWh,
		Full:                    toSubsystemDTO(r.Full),
		Critical:                toSubsystemDTO(r.Critical),
		InverterContinuousWatts: r.Inverter.ContinuousWatts,
		InverterWatts:           r.Inverter.Watts,
		InverterSurgeWatts:      r.Inverter.SurgeWatts,
		ChargeControllerAmps:    r.ChargeController.Amps,
		TopLoads:                top,
		Parts: map[string]PartDTO{
			"panel":             toPartDTO(p.Selection.Panel),
			"battery":           toPartDTO(p.Selection.Battery),
			"inverter":          toPartDTO(p.Selection.Inverter),
			"charge_controller": toPartDTO(p.Selection.ChargeController),
		},
		BOM:     p.BOM.Rows,
		Summary: p.Summary,
	}
}

// DecodeProject reads a JSON project from a request payload.
func DecodeProject(b []byte) (project.Project, error) {
	return project.Decode(bytes.NewReader(b), project.FormatJSON)
}
