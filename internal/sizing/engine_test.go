package sizing

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func householdLoads() []Load {
	return []Load{
		{Name: "TV", PowerWatts: 100, HoursPerDay: 5},
		{Name: "Fridge", PowerWatts: 150, HoursPerDay: 24, Critical: true},
		{Name: "Router", PowerWatts: 10, HoursPerDay: 24, Critical: true},
	}
}

func TestComputeEnergyTotals_Household(t *testing.T) {
	got := ComputeEnergyTotals(householdLoads())

	assert.Equal(t, 4340.0, got.TotalWh)
	assert.Equal(t, 3840.0, got.CriticalWh)
}

func TestComputeEnergyTotals_Empty(t *testing.T) {
	assert.Equal(t, EnergyTotals{}, ComputeEnergyTotals(nil))
	assert.Equal(t, EnergyTotals{}, ComputeEnergyTotals([]Load{}))
}

func TestComputeEnergyTotals_QuantityMultiplies(t *testing.T) {
	got := ComputeEnergyTotals([]Load{
		{Name: "LED Bulb", PowerWatts: 10, HoursPerDay: 4, Quantity: 6, Critical: true},
	})
	assert.Equal(t, 240.0, got.TotalWh)
	assert.Equal(t, 240.0, got.CriticalWh)
}

func TestComputeEnergyTotals_CriticalNeverExceedsTotal(t *testing.T) {
	loads := []Load{
		{Name: "a", PowerWatts: 0.1, HoursPerDay: 0.3, Critical: true},
		{Name: "b", PowerWatts: 1e9, HoursPerDay: 24},
		{Name: "c", PowerWatts: 0.7, HoursPerDay: 23.9, Critical: true},
		{Name: "d", PowerWatts: 3.3, HoursPerDay: 1.1, Critical: true},
	}
	for i := 0; i < 1<<len(loads); i++ {
		for j := range loads {
			loads[j].Critical = i&(1<<j) != 0
		}
		got := ComputeEnergyTotals(loads)
		require.LessOrEqual(t, got.CriticalWh, got.TotalWh, "mask %b", i)
	}
}

func TestSizeBatteryBank_Lithium(t *testing.T) {
	e := NewDefault()
	cfg := DefaultSystemConfig()

	got, err := e.SizeBatteryBank(4340, cfg)
	require.NoError(t, err)

	// 4340 / (24 x 0.90 x 0.95)
	assert.InDelta(t, 211.50, got.RequiredAh, 0.01)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 300.0, got.BankAh)
	assert.Equal(t, 7200.0, got.BankWh)
	assert.InDelta(t, 6480.0, got.UsableWh, 1e-9)
}

func TestSizeBatteryBank_AutonomyScales(t *testing.T) {
	e := NewDefault()
	cfg := DefaultSystemConfig()

	one, err := e.SizeBatteryBank(1000, cfg)
	require.NoError(t, err)
	cfg.AutonomyDays = 3
	three, err := e.SizeBatteryBank(1000, cfg)
	require.NoError(t, err)

	assert.InDelta(t, 3*one.RequiredAh, three.RequiredAh, 1e-9)
}

func TestSizeBatteryBank_ZeroEnergyNeedsNoBattery(t *testing.T) {
	got, err := NewDefault().SizeBatteryBank(0, DefaultSystemConfig())
	require.NoError(t, err)
	assert.Equal(t, BatterySpec{}, got)
}

func TestSizeBatteryBank_TinyEnergyNeedsOneBattery(t *testing.T) {
	got, err := NewDefault().SizeBatteryBank(0.001, DefaultSystemConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestSizeBatteryBank_ConfigErrors(t *testing.T) {
	broken := DefaultChemistryTable()
	broken["zero_dod"] = ChemistryParams{DepthOfDischarge: 0, RoundTripEfficiency: 0.9}
	broken["zero_eff"] = ChemistryParams{DepthOfDischarge: 0.5, RoundTripEfficiency: 0}
	// bypass New so the table can hold values New would reject
	e := &Engine{chemistries: broken}

	tests := []struct {
		name  string
		mut   func(*SystemConfig)
		field string
		want  error
	}{
		{"zero voltage", func(c *SystemConfig) { c.SystemVoltage = 0 }, "system_voltage", ErrNonPositive},
		{"negative voltage", func(c *SystemConfig) { c.SystemVoltage = -24 }, "system_voltage", ErrNonPositive},
		{"zero dod", func(c *SystemConfig) { c.Chemistry = "zero_dod" }, "depth_of_discharge", ErrNonPositive},
		{"zero efficiency", func(c *SystemConfig) { c.Chemistry = "zero_eff" }, "round_trip_efficiency", ErrNonPositive},
		{"unknown chemistry", func(c *SystemConfig) { c.Chemistry = "nickel_iron" }, "chemistry", ErrUnknownChemistry},
		{"zero unit capacity", func(c *SystemConfig) { c.BatteryUnitCapacityAh = 0 }, "battery_unit_capacity_ah", ErrNonPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSystemConfig()
			tt.mut(&cfg)

			_, err := e.SizeBatteryBank(1000, cfg)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorIs(t, err, tt.want)
			var cve *ConfigValidationError
			require.ErrorAs(t, err, &cve)
			assert.Equal(t, tt.field, cve.Field)
		})
	}
}

func TestSizeBatteryBank_NegativeEnergy(t *testing.T) {
	_, err := NewDefault().SizeBatteryBank(-1, DefaultSystemConfig())
	assert.ErrorIs(t, err, ErrInvalidLoad)
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestSizePVArray_Household(t *testing.T) {
	got, err := SizePVArray(4340, DefaultSystemConfig())
	require.NoError(t, err)

	// 4340 / (5 x 0.90 x 0.80) x 1.15
	assert.InDelta(t, 1386.39, got.RequiredWatts, 0.01)
	assert.Equal(t, 4, got.PanelCount)
	assert.Equal(t, 1440.0, got.InstalledWatts)
}

func TestSizePVArray_ZeroEnergy(t *testing.T) {
	got, err := SizePVArray(0, DefaultSystemConfig())
	require.NoError(t, err)
	assert.Equal(t, PVSpec{}, got)
}

func TestSizePVArray_ExactMultipleDoesNotRoundUp(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.SunHoursPerDay = 1
	cfg.PanelEfficiency = 1
	cfg.DeratingFactor = 1
	cfg.SafetyFactor = 1.1
	cfg.PanelRatedWatts = 110

	// 300 x 1.1 = 330.00000000000006 in float64
	got, err := SizePVArray(300, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, got.PanelCount)
}

func TestSizePVArray_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*SystemConfig)
		field string
	}{
		{"sun hours", func(c *SystemConfig) { c.SunHoursPerDay = 0 }, "sun_hours_per_day"},
		{"panel efficiency", func(c *SystemConfig) { c.PanelEfficiency = -0.1 }, "panel_efficiency"},
		{"derating", func(c *SystemConfig) { c.DeratingFactor = 0 }, "derating_factor"},
		{"panel watts", func(c *SystemConfig) { c.PanelRatedWatts = 0 }, "panel_rated_watts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSystemConfig()
			tt.mut(&cfg)

			_, err := SizePVArray(1000, cfg)

			var cve *ConfigValidationError
			require.ErrorAs(t, err, &cve)
			assert.Equal(t, tt.field, cve.Field)
			assert.ErrorIs(t, err, ErrNonPositive)
		})
	}
}

func TestSizeInverter_UsesAllLoads(t *testing.T) {
	got := SizeInverter(householdLoads())

	assert.Equal(t, 260.0, got.ContinuousWatts)
	assert.InDelta(t, 338.0, got.Watts, 1e-9)
	assert.Equal(t, 260.0, got.SurgeWatts)
}

func TestSizeInverter_IgnoresCriticalPartition(t *testing.T) {
	loads := householdLoads()
	want := SizeInverter(loads)

	for mask := 0; mask < 1<<len(loads); mask++ {
		for i := range loads {
			loads[i].Critical = mask&(1<<i) != 0
		}
		assert.Equal(t, want, SizeInverter(loads), "mask %b", mask)
	}
}

func TestSizeInverter_Surge(t *testing.T) {
	got := SizeInverter([]Load{
		{Name: "Pump", PowerWatts: 750, HoursPerDay: 1, SurgeWatts: 2200},
		{Name: "Lights", PowerWatts: 10, HoursPerDay: 6, Quantity: 5},
	})

	assert.Equal(t, 800.0, got.ContinuousWatts)
	assert.Equal(t, 2200.0, got.SurgeWatts)
}

func TestSizeInverter_Empty(t *testing.T) {
	assert.Equal(t, InverterSpec{}, SizeInverter(nil))
}

func TestSizeChargeController(t *testing.T) {
	got, err := SizeChargeController(1200, 24)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Amps)

	_, err = SizeChargeController(1200, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = SizeChargeController(-5, 24)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRankTopLoads_OrderAndLimit(t *testing.T) {
	loads := []Load{
		{Name: "a", PowerWatts: 10, HoursPerDay: 1},
		{Name: "b", PowerWatts: 50, HoursPerDay: 1},
		{Name: "c", PowerWatts: 10, HoursPerDay: 1},
		{Name: "off", PowerWatts: 0, HoursPerDay: 10},
		{Name: "d", PowerWatts: 30, HoursPerDay: 1},
		{Name: "e", PowerWatts: 5, HoursPerDay: 1},
		{Name: "f", PowerWatts: 10, HoursPerDay: 1},
	}

	var names []string
	for r := range RankTopLoads(loads, 5) {
		names = append(names, r.Name)
	}

	assert.Equal(t, []string{"b", "d", "a", "c", "f"}, names)
}

func TestRankTopLoads_Restartable(t *testing.T) {
	seq := RankTopLoads(householdLoads(), 2)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "Fridge", first[0].Name)
	assert.True(t, first[0].Critical)
}

func TestRankTopLoads_EarlyBreak(t *testing.T) {
	count := 0
	for range RankTopLoads(householdLoads(), 5) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestRankTopLoads_NonPositiveN(t *testing.T) {
	assert.Empty(t, slices.Collect(RankTopLoads(householdLoads(), 0)))
	assert.Empty(t, slices.Collect(RankTopLoads(householdLoads(), -3)))
}

func TestRankTopLoads_DetachedFromCallerSlice(t *testing.T) {
	loads := householdLoads()
	seq := RankTopLoads(loads, 1)
	loads[0].PowerWatts = 1e6

	got := slices.Collect(seq)
	require.Len(t, got, 1)
	assert.Equal(t, "Fridge", got[0].Name)
}

func TestRun_Household(t *testing.T) {
	res, err := NewDefault().Run(householdLoads(), DefaultSystemConfig())
	require.NoError(t, err)

	assert.Equal(t, 4340.0, res.Energy.TotalWh)
	assert.Equal(t, 3840.0, res.Energy.CriticalWh)

	assert.InDelta(t, 211.50, res.Full.Battery.RequiredAh, 0.01)
	assert.Equal(t, 3, res.Full.Battery.Count)
	assert.InDelta(t, 187.13, res.Critical.Battery.RequiredAh, 0.01)
	assert.Equal(t, 2, res.Critical.Battery.Count)

	assert.Equal(t, 4, res.Full.PV.PanelCount)
	assert.InDelta(t, 1226.67, res.Critical.PV.RequiredWatts, 0.01)
	assert.Equal(t, 4, res.Critical.PV.PanelCount)

	assert.InDelta(t, 338.0, res.Inverter.Watts, 1e-9)
	assert.InDelta(t, res.Full.PV.RequiredWatts/24, res.ChargeController.Amps, 1e-9)

	require.Len(t, res.TopLoads, 3)
	assert.Equal(t, "Fridge", res.TopLoads[0].Name)
	assert.Equal(t, "TV", res.TopLoads[1].Name)
	assert.Equal(t, "Router", res.TopLoads[2].Name)
}

func TestRun_EmptyLoads(t *testing.T) {
	res, err := NewDefault().Run(nil, DefaultSystemConfig())
	require.NoError(t, err)

	assert.Zero(t, res.Energy.TotalWh)
	assert.Zero(t, res.Full.Battery.Count)
	assert.Zero(t, res.Full.PV.PanelCount)
	assert.Zero(t, res.Inverter.Watts)
	assert.Zero(t, res.ChargeController.Amps)
	assert.Empty(t, res.TopLoads)
}

func TestRun_Idempotent(t *testing.T) {
	e := NewDefault()
	loads := householdLoads()
	cfg := DefaultSystemConfig()

	first, err := e.Run(loads, cfg)
	require.NoError(t, err)
	second, err := e.Run(loads, cfg)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Run not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, householdLoads(), loads, "inputs must not be mutated")
}

func TestRun_MonotonicInHours(t *testing.T) {
	e := NewDefault()
	cfg := DefaultSystemConfig()
	loads := householdLoads()

	prev, err := e.Run(loads, cfg)
	require.NoError(t, err)
	for h := 5.5; h <= 24; h += 0.5 {
		loads[0].HoursPerDay = h
		cur, err := e.Run(loads, cfg)
		require.NoError(t, err)

		assert.Greater(t, cur.Energy.TotalWh, prev.Energy.TotalWh)
		assert.GreaterOrEqual(t, cur.Full.Battery.RequiredAh, prev.Full.Battery.RequiredAh)
		assert.GreaterOrEqual(t, cur.Full.PV.RequiredWatts, prev.Full.PV.RequiredWatts)
		prev = cur
	}
}

func TestRun_LithiumNeedsLessCapacityThanLeadAcid(t *testing.T) {
	e := NewDefault()
	cfg := DefaultSystemConfig()

	cfg.Chemistry = ChemistryLithium
	li, err := e.Run(householdLoads(), cfg)
	require.NoError(t, err)
	cfg.Chemistry = ChemistryLeadAcid
	pb, err := e.Run(householdLoads(), cfg)
	require.NoError(t, err)

	assert.LessOrEqual(t, li.Full.Battery.RequiredAh, pb.Full.Battery.RequiredAh)
	// 4340 / (24 x 0.5 x 0.8)
	assert.InDelta(t, 452.08, pb.Full.Battery.RequiredAh, 0.01)
}

func TestRun_ZeroLoadsAreValid(t *testing.T) {
	loads := []Load{
		{Name: "unplugged", PowerWatts: 0, HoursPerDay: 12},
		{Name: "standby", PowerWatts: 40, HoursPerDay: 0, Critical: true},
	}

	res, err := NewDefault().Run(loads, DefaultSystemConfig())
	require.NoError(t, err)
	assert.Zero(t, res.Energy.TotalWh)
	assert.Zero(t, res.Energy.CriticalWh)
	assert.Zero(t, res.Full.Battery.Count)
	assert.Zero(t, res.Critical.PV.PanelCount)
}

func TestRun_ValidationHappensFirst(t *testing.T) {
	e := NewDefault()

	cfg := DefaultSystemConfig()
	cfg.Chemistry = "nickel_iron"
	res, err := e.Run(householdLoads(), cfg)
	assert.ErrorIs(t, err, ErrUnknownChemistry)
	assert.Equal(t, Result{}, res)

	loads := householdLoads()
	loads[1].HoursPerDay = 25
	res, err = e.Run(loads, DefaultSystemConfig())
	var ide *InputDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 1, ide.Index)
	assert.Equal(t, "Fridge", ide.Name)
	assert.True(t, errors.Is(err, ErrHoursOutOfRange))
	assert.Equal(t, Result{}, res)
}

func TestRun_TinyPanelRatingIsOutOfRange(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.PanelRatedWatts = 1e-20

	res, err := NewDefault().Run([]Load{{Name: "TV", PowerWatts: 100, HoursPerDay: 5}}, cfg)

	var cve *ConfigValidationError
	require.ErrorAs(t, err, &cve)
	assert.Equal(t, "panel_count", cve.Field)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, Result{}, res)
}

func TestRun_HugeLoadIsOutOfRange(t *testing.T) {
	res, err := NewDefault().Run([]Load{{Name: "Smelter", PowerWatts: 1e22, HoursPerDay: 24}}, DefaultSystemConfig())

	var cve *ConfigValidationError
	require.ErrorAs(t, err, &cve)
	assert.Equal(t, "battery_count", cve.Field)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, Result{}, res)
}

func TestSizePVArray_CountAtLimit(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.SafetyFactor = 1
	cfg.PanelEfficiency = 1
	cfg.DeratingFactor = 1
	cfg.SunHoursPerDay = 1
	cfg.PanelRatedWatts = 1

	pv, err := SizePVArray(MaxUnits, cfg)
	require.NoError(t, err)
	assert.Equal(t, MaxUnits, pv.PanelCount)

	_, err = SizePVArray(2*MaxUnits, cfg)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(ChemistryTable{"bad": {DepthOfDischarge: 1.2, RoundTripEfficiency: 0.9}})
	assert.ErrorIs(t, err, ErrOutOfRange)

	table := DefaultChemistryTable().With("nickel_iron", ChemistryParams{DepthOfDischarge: 0.8, RoundTripEfficiency: 0.65})
	e, err := New(table)
	require.NoError(t, err)

	cfg := DefaultSystemConfig()
	cfg.Chemistry = "nickel_iron"
	res, err := e.Run(householdLoads(), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 4340/(24*0.8*0.65), res.Full.Battery.RequiredAh, 1e-9)

	// the engine keeps its own copy
	table["nickel_iron"] = ChemistryParams{}
	_, err = e.Run(householdLoads(), cfg)
	assert.NoError(t, err)
}
