package sizing

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Chemistry is a key into a ChemistryTable. The table, not this type,
// decides which chemistries exist.
type Chemistry string

const (
	ChemistryLithium  Chemistry = "lithium"
	ChemistryLeadAcid Chemistry = "lead_acid"
	ChemistryTubular  Chemistry = "tubular"
)

func (c Chemistry) String() string { return string(c) }

// ParseChemistry normalises user input ("Lead-acid", "LiFePO4", ...) to a
// Chemistry key. It does not check the key against any table.
func ParseChemistry(s string) (Chemistry, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "":
		return "", configErr("chemistry", s, ErrUnknownChemistry)
	case "lifepo4", "lithium_ion", "li_ion", "lfp":
		return ChemistryLithium, nil
	case "lead_acid_flooded", "agm", "flooded", "lead_acid_agm":
		return ChemistryLeadAcid, nil
	}
	return Chemistry(key), nil
}

// ChemistryParams are the storage assumptions attached to a chemistry.
type ChemistryParams struct {
	DepthOfDischarge    float64 // usable fraction of nameplate capacity, (0, 1]
	RoundTripEfficiency float64 // (0, 1]
}

func (p ChemistryParams) Validate() error {
	if p.DepthOfDischarge <= 0 {
		return configErr("depth_of_discharge", p.DepthOfDischarge, ErrNonPositive)
	}
	if p.DepthOfDischarge > 1 {
		return configErr("depth_of_discharge", p.DepthOfDischarge, ErrOutOfRange)
	}
	if p.RoundTripEfficiency <= 0 {
		return configErr("round_trip_efficiency", p.RoundTripEfficiency, ErrNonPositive)
	}
	if p.RoundTripEfficiency > 1 {
		return configErr("round_trip_efficiency", p.RoundTripEfficiency, ErrOutOfRange)
	}
	return nil
}

// ChemistryTable maps chemistries to their assumptions.
type ChemistryTable map[Chemistry]ChemistryParams

// DefaultChemistryTable returns a fresh copy of the built-in assumptions.
func DefaultChemistryTable() ChemistryTable {
	return ChemistryTable{
		ChemistryLithium:  {DepthOfDischarge: 0.90, RoundTripEfficiency: 0.95},
		ChemistryLeadAcid: {DepthOfDischarge: 0.50, RoundTripEfficiency: 0.80},
		ChemistryTubular:  {DepthOfDischarge: 0.50, RoundTripEfficiency: 0.80},
	}
}

func (t ChemistryTable) Lookup(c Chemistry) (ChemistryParams, error) {
	p, ok := t[c]
	if !ok {
		return ChemistryParams{}, configErr("chemistry", string(c), ErrUnknownChemistry)
	}
	return p, nil
}

func (t ChemistryTable) Validate() error {
	for _, c := range t.Names() {
		if err := t[c].Validate(); err != nil {
			return fmt.Errorf("chemistry %q: %w", c, err)
		}
	}
	return nil
}

// Names returns the table keys in lexical order.
func (t ChemistryTable) Names() []Chemistry {
	return slices.Sorted(maps.Keys(t))
}

// With returns a copy of t with p set for c.
func (t ChemistryTable) With(c Chemistry, p ChemistryParams) ChemistryTable {
	out := maps.Clone(t)
	if out == nil {
		out = ChemistryTable{}
	}
	out[c] = p
	return out
}
