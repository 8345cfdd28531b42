package sizing

import "math"

// Load is one appliance line of the load list.
type Load struct {
	Name        string
	PowerWatts  float64
	HoursPerDay float64
	Quantity    int     // identical units; 0 counts as one
	SurgeWatts  float64 // start-up surge of a single unit, 0 if unknown
	Critical    bool
}

// Units is the number of identical appliances the line stands for.
func (l Load) Units() int {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

// ContinuousWatts is the draw of all units running at once.
func (l Load) ContinuousWatts() float64 {
	return l.PowerWatts * float64(l.Units())
}

// EnergyWhPerDay is the daily energy of the line.
func (l Load) EnergyWhPerDay() float64 {
	return l.ContinuousWatts() * l.HoursPerDay
}

func IsCritical(l Load) bool { return l.Critical }

// Validate reports the first unusable field. index is only used to label the error.
func (l Load) Validate(index int) error {
	bad := func(field string, v float64, err error) error {
		return &InputDataError{Index: index, Name: l.Name, Field: field, Value: v, Err: err}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"power_watts", l.PowerWatts},
		{"hours_per_day", l.HoursPerDay},
		{"surge_watts", l.SurgeWatts},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return bad(f.name, f.v, ErrNotFinite)
		}
		if f.v < 0 {
			return bad(f.name, f.v, ErrNegativeValue)
		}
	}
	if l.HoursPerDay > 24 {
		return bad("hours_per_day", l.HoursPerDay, ErrHoursOutOfRange)
	}
	if l.Quantity < 0 {
		return bad("quantity", float64(l.Quantity), ErrNegativeValue)
	}
	return nil
}

// ValidateLoads validates every load and returns the first failure.
func ValidateLoads(loads []Load) error {
	for i, l := range loads {
		if err := l.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// Partition splits loads by pred, preserving input order on both sides.
func Partition(loads []Load, pred func(Load) bool) (matched, rest []Load) {
	for _, l := range loads {
		if pred(l) {
			matched = append(matched, l)
		} else {
			rest = append(rest, l)
		}
	}
	return matched, rest
}

// PartitionCritical splits loads into the backup subset and everything else.
func PartitionCritical(loads []Load) (critical, other []Load) {
	return Partition(loads, IsCritical)
}
