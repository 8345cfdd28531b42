package sizing

import (
	"math"
	"slices"
)

// SupportedVoltages are the nominal DC bus voltages the sizing accepts.
var SupportedVoltages = []int{12, 24, 48}

// SystemConfig holds the user-chosen parameters of one sizing run.
type SystemConfig struct {
	Chemistry             Chemistry
	PanelRatedWatts       float64
	SystemVoltage         int
	SunHoursPerDay        float64
	AutonomyDays          float64
	PanelEfficiency       float64 // (0, 1]
	DeratingFactor        float64 // (0, 1], wiring/temperature/soiling losses
	SafetyFactor          float64 // >= 1
	BatteryUnitCapacityAh float64
}

func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Chemistry:             ChemistryLithium,
		PanelRatedWatts:       360,
		SystemVoltage:         24,
		SunHoursPerDay:        5.0,
		AutonomyDays:          1,
		PanelEfficiency:       0.90,
		DeratingFactor:        0.80,
		SafetyFactor:          1.15,
		BatteryUnitCapacityAh: 100,
	}
}

// Validate checks every divisor and range used by the formulas.
// The chemistry is checked separately against a table.
func (c SystemConfig) Validate() error {
	if c.SystemVoltage <= 0 {
		return configErr("system_voltage", c.SystemVoltage, ErrNonPositive)
	}
	if !slices.Contains(SupportedVoltages, c.SystemVoltage) {
		return configErr("system_voltage", c.SystemVoltage, ErrUnsupportedVoltage)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"panel_rated_watts", c.PanelRatedWatts},
		{"sun_hours_per_day", c.SunHoursPerDay},
		{"autonomy_days", c.AutonomyDays},
		{"panel_efficiency", c.PanelEfficiency},
		{"derating_factor", c.DeratingFactor},
		{"safety_factor", c.SafetyFactor},
		{"battery_unit_capacity_ah", c.BatteryUnitCapacityAh},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return configErr(f.name, f.v, ErrNotFinite)
		}
		if f.v <= 0 {
			return configErr(f.name, f.v, ErrNonPositive)
		}
	}
	if c.SunHoursPerDay > 24 {
		return configErr("sun_hours_per_day", c.SunHoursPerDay, ErrOutOfRange)
	}
	if c.PanelEfficiency > 1 {
		return configErr("panel_efficiency", c.PanelEfficiency, ErrOutOfRange)
	}
	if c.DeratingFactor > 1 {
		return configErr("derating_factor", c.DeratingFactor, ErrOutOfRange)
	}
	if c.SafetyFactor < 1 {
		return configErr("safety_factor", c.SafetyFactor, ErrOutOfRange)
	}
	return nil
}
