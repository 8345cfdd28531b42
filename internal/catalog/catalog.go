// Package catalog maps computed ratings to off-the-shelf component sizes.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrEmptyCatalog = errors.New("catalog has no entries")

// SKU is one purchasable size. Rating is watts for panels and inverters,
// amp-hours for batteries and amps for charge controllers.
type SKU struct {
	Model     string  `json:"model" yaml:"model"`
	Rating    float64 `json:"rating" yaml:"rating"`
	Voltage   int     `json:"voltage,omitempty" yaml:"voltage,omitempty"`
	Chemistry string  `json:"chemistry,omitempty" yaml:"chemistry,omitempty"` // batteries only
}

// chemistry normalises the tag the same way system configs are, so
// "LiFePO4" and "lithium" agree. Untagged SKUs match no chemistry.
func (s SKU) chemistry() sizing.Chemistry {
	c, err := sizing.ParseChemistry(s.Chemistry)
	if err != nil {
		return ""
	}
	return c
}

type Catalog struct {
	Panels            []SKU `json:"panels" yaml:"panels"`
	Batteries         []SKU `json:"batteries" yaml:"batteries"`
	Inverters         []SKU `json:"inverters" yaml:"inverters"`
	ChargeControllers []SKU `json:"charge_controllers" yaml:"charge_controllers"`
}

// Default returns the built-in catalog.
func Default() Catalog {
	c, err := Decode(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

func Decode(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Panels)+len(c.Batteries)+len(c.Inverters)+len(c.ChargeControllers) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	return c, nil
}

func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Nearest returns the smallest SKU rated at least target. When every SKU is
// too small it returns the largest one and ok=false, leaving the caller to
// parallel several units. An empty list returns the zero SKU and ok=false.
func Nearest(skus []SKU, target float64) (sku SKU, ok bool) {
	var best, largest SKU
	found := false
	for i, s := range skus {
		if i == 0 || s.Rating > largest.Rating {
			largest = s
		}
		if s.Rating >= target && (!found || s.Rating < best.Rating) {
			best, found = s, true
		}
	}
	if found {
		return best, true
	}
	return largest, false
}

// Match is the SKU chosen for one bill-of-materials row. Adequate is false
// when the SKU is smaller than Target, or when it is not the exact part the
// counts were computed for; Note then says why.
type Match struct {
	SKU      SKU     `json:"sku"`
	Target   float64 `json:"target"`
	Adequate bool    `json:"adequate"`
	Note     string  `json:"note,omitempty"`
}

type Selection struct {
	Panel            Match `json:"panel"`
	Battery          Match `json:"battery"`
	Inverter         Match `json:"inverter"`
	ChargeController Match `json:"charge_controller"`
}

// Select picks catalog parts for a sizing result. Panels and batteries must
// carry the unit rating the counts were computed with, and batteries the
// configured chemistry and bus voltage; the inverter and controller need
// at least the computed rating.
func (c Catalog) Select(cfg sizing.SystemConfig, res sizing.Result) Selection {
	battery := unitMatch(c.batteriesFor(cfg.Chemistry, cfg.SystemVoltage), cfg.BatteryUnitCapacityAh, "Ah")
	if battery.Adequate {
		if sku := battery.SKU; sku.chemistry() != cfg.Chemistry {
			battery.Adequate = false
			battery.Note = fmt.Sprintf("no %s battery in catalog", cfg.Chemistry)
		} else if sku.Voltage != cfg.SystemVoltage {
			battery.Adequate = false
			battery.Note = fmt.Sprintf("no %d V %s battery in catalog", cfg.SystemVoltage, cfg.Chemistry)
		}
	}
	return Selection{
		Panel:            unitMatch(c.Panels, cfg.PanelRatedWatts, "W"),
		Battery:          battery,
		Inverter:         match(c.Inverters, res.Inverter.Watts),
		ChargeController: match(c.ChargeControllers, res.ChargeController.Amps),
	}
}

func match(skus []SKU, target float64) Match {
	s, ok := Nearest(skus, target)
	m := Match{SKU: s, Target: target, Adequate: ok}
	if !ok {
		m.Note = "no catalog part large enough"
	}
	return m
}

// unitMatch is match for a part whose rating the unit counts depend on: a
// larger SKU is still the nearest choice but not an adequate one.
func unitMatch(skus []SKU, target float64, unit string) Match {
	m := match(skus, target)
	if m.Adequate && m.SKU.Rating != target {
		m.Adequate = false
		m.Note = fmt.Sprintf("nearest catalog part is %g %s, counts assume %g %s", m.SKU.Rating, unit, target, unit)
	}
	return m
}

// batteriesFor narrows the battery list to the chemistry, then to the bus
// voltage. A step that would leave nothing is skipped.
func (c Catalog) batteriesFor(chem sizing.Chemistry, volts int) []SKU {
	out := filter(c.Batteries, func(s SKU) bool { return s.chemistry() == chem })
	if len(out) == 0 {
		out = c.Batteries
	}
	if v := filter(out, func(s SKU) bool { return s.Voltage == volts }); len(v) > 0 {
		out = v
	}
	return out
}

func filter(skus []SKU, keep func(SKU) bool) []SKU {
	var out []SKU
	for _, s := range skus {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
