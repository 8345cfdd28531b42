package sizing

import (
	"cmp"
	"errors"
	"iter"
	"maps"
	"math"
	"slices"
)

const (
	// InverterHeadroom is applied to the simultaneous draw of all loads.
	InverterHeadroom = 1.3
	// DefaultTopLoads is how many loads Run ranks for charts.
	DefaultTopLoads = 5
	// MaxUnits bounds every whole-unit count the engine or a bill of
	// materials reports.
	MaxUnits = math.MaxInt32

	// countTolerance is relative: float noise on a count of n is about n x 2e-16.
	countTolerance = 1e-12
)

// Engine sizes solar systems against a fixed chemistry table. It holds no
// per-run state and is safe for concurrent use.
type Engine struct {
	chemistries ChemistryTable
}

func New(table ChemistryTable) (*Engine, error) {
	if len(table) == 0 {
		return nil, errors.New("sizing: chemistry table is empty")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Engine{chemistries: maps.Clone(table)}, nil
}

// NewDefault returns an engine using DefaultChemistryTable.
func NewDefault() *Engine {
	return &Engine{chemistries: DefaultChemistryTable()}
}

// Chemistries returns a copy of the engine's table.
func (e *Engine) Chemistries() ChemistryTable {
	return maps.Clone(e.chemistries)
}

// ValidateConfig checks cfg and resolves its chemistry.
func (e *Engine) ValidateConfig(cfg SystemConfig) (ChemistryParams, error) {
	if err := cfg.Validate(); err != nil {
		return ChemistryParams{}, err
	}
	return e.chemistries.Lookup(cfg.Chemistry)
}

// ComputeEnergyTotals sums daily energy over all loads and over the critical partition.
func ComputeEnergyTotals(loads []Load) EnergyTotals {
	critical, _ := PartitionCritical(loads)
	return EnergyTotals{
		TotalWh:    sumEnergy(loads),
		CriticalWh: sumEnergy(critical),
	}
}

func sumEnergy(loads []Load) float64 {
	var wh float64
	for _, l := range loads {
		wh += l.EnergyWhPerDay()
	}
	return wh
}

// SizeBatteryBank computes the amp-hours needed to carry energyWh for the
// configured autonomy, and how many battery units provide them.
func (e *Engine) SizeBatteryBank(energyWh float64, cfg SystemConfig) (BatterySpec, error) {
	if err := checkEnergy(energyWh); err != nil {
		return BatterySpec{}, err
	}
	if err := requirePositive("system_voltage", float64(cfg.SystemVoltage)); err != nil {
		return BatterySpec{}, err
	}
	if err := requirePositive("autonomy_days", cfg.AutonomyDays); err != nil {
		return BatterySpec{}, err
	}
	if err := requirePositive("battery_unit_capacity_ah", cfg.BatteryUnitCapacityAh); err != nil {
		return BatterySpec{}, err
	}
	chem, err := e.chemistries.Lookup(cfg.Chemistry)
	if err != nil {
		return BatterySpec{}, err
	}
	if err := requirePositive("depth_of_discharge", chem.DepthOfDischarge); err != nil {
		return BatterySpec{}, err
	}
	if err := requirePositive("round_trip_efficiency", chem.RoundTripEfficiency); err != nil {
		return BatterySpec{}, err
	}

	volts := float64(cfg.SystemVoltage)
	requiredAh := (energyWh * cfg.AutonomyDays) / (volts * chem.DepthOfDischarge * chem.RoundTripEfficiency)
	count, err := wholeUnits("battery_count", energyWh, requiredAh/cfg.BatteryUnitCapacityAh)
	if err != nil {
		return BatterySpec{}, err
	}
	bankAh := float64(count) * cfg.BatteryUnitCapacityAh

	return BatterySpec{
		RequiredAh: requiredAh,
		Count:      count,
		BankAh:     bankAh,
		BankWh:     bankAh * volts,
		UsableWh:   bankAh * volts * chem.DepthOfDischarge,
	}, nil
}

// SizePVArray computes the array wattage that replaces energyWh per day and
// the number of panels of the configured rating.
func SizePVArray(energyWh float64, cfg SystemConfig) (PVSpec, error) {
	if err := checkEnergy(energyWh); err != nil {
		return PVSpec{}, err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"sun_hours_per_day", cfg.SunHoursPerDay},
		{"panel_efficiency", cfg.PanelEfficiency},
		{"derating_factor", cfg.DeratingFactor},
		{"panel_rated_watts", cfg.PanelRatedWatts},
	} {
		if err := requirePositive(f.name, f.v); err != nil {
			return PVSpec{}, err
		}
	}

	required := energyWh / (cfg.SunHoursPerDay * cfg.PanelEfficiency * cfg.DeratingFactor) * cfg.SafetyFactor
	count, err := wholeUnits("panel_count", energyWh, required/cfg.PanelRatedWatts)
	if err != nil {
		return PVSpec{}, err
	}

	return PVSpec{
		RequiredWatts:  required,
		PanelCount:     count,
		InstalledWatts: float64(count) * cfg.PanelRatedWatts,
	}, nil
}

// SizeInverter rates the inverter for every load running at once. The
// critical flag is ignored: the rating always covers the full load list.
func SizeInverter(loads []Load) InverterSpec {
	var continuous, surge float64
	for _, l := range loads {
		continuous += l.ContinuousWatts()
		surge = max(surge, l.SurgeWatts)
	}
	return InverterSpec{
		ContinuousWatts: continuous,
		Watts:           InverterHeadroom * continuous,
		SurgeWatts:      max(surge, continuous),
	}
}

// SizeChargeController rates the controller current for the full PV array.
func SizeChargeController(pvWatts float64, systemVoltage int) (ControllerSpec, error) {
	if math.IsNaN(pvWatts) || math.IsInf(pvWatts, 0) || pvWatts < 0 {
		return ControllerSpec{}, configErr("pv_watts", pvWatts, ErrNegativeValue)
	}
	if err := requirePositive("system_voltage", float64(systemVoltage)); err != nil {
		return ControllerSpec{}, err
	}
	return ControllerSpec{
		PVWatts:       pvWatts,
		SystemVoltage: systemVoltage,
		Amps:          pvWatts / float64(systemVoltage),
	}, nil
}

// RankTopLoads yields at most n loads by daily energy, largest first. Ties
// keep input order. Loads without energy are skipped. The sequence can be
// ranged over any number of times and always yields the same values.
func RankTopLoads(loads []Load, n int) iter.Seq[RankedLoad] {
	loads = slices.Clone(loads)
	return func(yield func(RankedLoad) bool) {
		if n <= 0 {
			return
		}
		ranked := make([]RankedLoad, 0, len(loads))
		for _, l := range loads {
			if wh := l.EnergyWhPerDay(); wh > 0 {
				ranked = append(ranked, RankedLoad{Name: l.Name, EnergyWh: wh, Critical: l.Critical})
			}
		}
		slices.SortStableFunc(ranked, func(a, b RankedLoad) int {
			return cmp.Compare(b.EnergyWh, a.EnergyWh)
		})
		for i, r := range ranked {
			if i == n || !yield(r) {
				return
			}
		}
	}
}

// Run sizes the full system and the critical backup system in one pass.
// Nothing is computed unless both cfg and loads are valid.
func (e *Engine) Run(loads []Load, cfg SystemConfig) (Result, error) {
	if _, err := e.ValidateConfig(cfg); err != nil {
		return Result{}, err
	}
	if err := ValidateLoads(loads); err != nil {
		return Result{}, err
	}

	totals := ComputeEnergyTotals(loads)

	full, err := e.sizeSubsystem(totals.TotalWh, cfg)
	if err != nil {
		return Result{}, err
	}
	critical, err := e.sizeSubsystem(totals.CriticalWh, cfg)
	if err != nil {
		return Result{}, err
	}
	controller, err := SizeChargeController(full.PV.RequiredWatts, cfg.SystemVoltage)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Energy:           totals,
		Full:             full,
		Critical:         critical,
		Inverter:         SizeInverter(loads),
		ChargeController: controller,
		TopLoads:         slices.Collect(RankTopLoads(loads, DefaultTopLoads)),
	}, nil
}

func (e *Engine) sizeSubsystem(energyWh float64, cfg SystemConfig) (Subsystem, error) {
	battery, err := e.SizeBatteryBank(energyWh, cfg)
	if err != nil {
		return Subsystem{}, err
	}
	pv, err := SizePVArray(energyWh, cfg)
	if err != nil {
		return Subsystem{}, err
	}
	return Subsystem{EnergyWh: energyWh, Battery: battery, PV: pv}, nil
}

// wholeUnits rounds a fractional unit count up, ignoring float noise just
// above an integer. Any positive energy needs at least one unit. Counts
// above MaxUnits, or not finite, are rejected rather than converted.
func wholeUnits(field string, energyWh, units float64) (int, error) {
	if energyWh <= 0 {
		return 0, nil
	}
	if whole := math.Round(units); math.Abs(units-whole) <= countTolerance*whole {
		units = whole
	}
	n := math.Ceil(units)
	if !(n <= MaxUnits) {
		return 0, configErr(field, units, ErrOutOfRange)
	}
	return max(1, int(n)), nil
}

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return configErr(field, v, ErrNonPositive)
	}
	return nil
}

func checkEnergy(wh float64) error {
	if math.IsNaN(wh) || math.IsInf(wh, 0) {
		return &InputDataError{Index: -1, Field: "energy_wh", Value: wh, Err: ErrNotFinite}
	}
	if wh < 0 {
		return &InputDataError{Index: -1, Field: "energy_wh", Value: wh, Err: ErrNegativeValue}
	}
	return nil
}
