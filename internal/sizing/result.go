package sizing

// EnergyTotals is the daily energy of the whole load list and of its
// critical subset. CriticalWh <= TotalWh always holds.
type EnergyTotals struct {
	TotalWh    float64
	CriticalWh float64
}

type BatterySpec struct {
	RequiredAh float64
	Count      int
	BankAh     float64 // Count x unit capacity
	BankWh     float64 // BankAh at the system voltage
	UsableWh   float64 // BankWh within the depth of discharge
}

type PVSpec struct {
	RequiredWatts  float64
	PanelCount     int
	InstalledWatts float64 // PanelCount x panel rating
}

type InverterSpec struct {
	ContinuousWatts float64 // every appliance running at once
	Watts           float64 // ContinuousWatts with headroom
	SurgeWatts      float64
}

type ControllerSpec struct {
	PVWatts       float64
	SystemVoltage int
	Amps          float64
}

// Subsystem is the storage and generation sized for one energy figure.
type Subsystem struct {
	EnergyWh float64
	Battery  BatterySpec
	PV       PVSpec
}

type RankedLoad struct {
	Name     string
	EnergyWh float64
	Critical bool
}

// Result is the output of one sizing run. Only battery and PV have a
// critical-only variant; the inverter and charge controller are rated for
// the full system.
type Result struct {
	Energy           EnergyTotals
	Full             Subsystem
	Critical         Subsystem
	Inverter         InverterSpec
	ChargeController ControllerSpec
	TopLoads         []RankedLoad
}
