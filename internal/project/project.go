package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

var ErrUnsupportedFormat = errors.New("unsupported project format")

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Project is a saved load list together with the system parameters that
// differ from the configured defaults.
type Project struct {
	Name   string          `json:"name,omitempty" yaml:"name,omitempty"`
	System SystemOverrides `json:"system" yaml:"system"`
	Loads  []LoadEntry     `json:"loads" yaml:"loads"`
}

type LoadEntry struct {
	Name        string  `json:"name" yaml:"name"`
	PowerWatts  float64 `json:"power_w" yaml:"power_w"`
	Quantity    int     `json:"qty,omitempty" yaml:"qty,omitempty"`
	HoursPerDay float64 `json:"hours_per_day" yaml:"hours_per_day"`
	SurgeWatts  float64 `json:"surge_w,omitempty" yaml:"surge_w,omitempty"`
	Critical    bool    `json:"critical" yaml:"critical"`
}

func (e LoadEntry) Load() sizing.Load {
	return sizing.Load{
		Name:        e.Name,
		PowerWatts:  e.PowerWatts,
		HoursPerDay: e.HoursPerDay,
		Quantity:    e.Quantity,
		SurgeWatts:  e.SurgeWatts,
		Critical:    e.Critical,
	}
}

// SystemOverrides holds optional replacements for the default system
// parameters. Nil fields keep the default.
type SystemOverrides struct {
	Chemistry             *string  `json:"chemistry,omitempty" yaml:"chemistry,omitempty"`
	PanelRatedWatts       *float64 `json:"panel_rated_watts,omitempty" yaml:"panel_rated_watts,omitempty"`
	SystemVoltage         *int     `json:"system_voltage,omitempty" yaml:"system_voltage,omitempty"`
	SunHoursPerDay        *float64 `json:"sun_hours_per_day,omitempty" yaml:"sun_hours_per_day,omitempty"`
	AutonomyDays          *float64 `json:"autonomy_days,omitempty" yaml:"autonomy_days,omitempty"`
	PanelEfficiency       *float64 `json:"panel_efficiency,omitempty" yaml:"panel_efficiency,omitempty"`
	DeratingFactor        *float64 `json:"derating_factor,omitempty" yaml:"derating_factor,omitempty"`
	SafetyFactor          *float64 `json:"safety_factor,omitempty" yaml:"safety_factor,omitempty"`
	BatteryUnitCapacityAh *float64 `json:"battery_unit_capacity_ah,omitempty" yaml:"battery_unit_capacity_ah,omitempty"`
}

// Apply overlays the set fields on base. Only the chemistry name is checked
// here; range checks belong to the engine.
func (o SystemOverrides) Apply(base sizing.SystemConfig) (sizing.SystemConfig, error) {
	cfg := base
	if o.Chemistry != nil {
		c, err := sizing.ParseChemistry(*o.Chemistry)
		if err != nil {
			return base, err
		}
		cfg.Chemistry = c
	}
	if o.SystemVoltage != nil {
		cfg.SystemVoltage = *o.SystemVoltage
	}
	setFloat(&cfg.PanelRatedWatts, o.PanelRatedWatts)
	setFloat(&cfg.SunHoursPerDay, o.SunHoursPerDay)
	setFloat(&cfg.AutonomyDays, o.AutonomyDays)
	setFloat(&cfg.PanelEfficiency, o.PanelEfficiency)
	setFloat(&cfg.DeratingFactor, o.DeratingFactor)
	setFloat(&cfg.SafetyFactor, o.SafetyFactor)
	setFloat(&cfg.BatteryUnitCapacityAh, o.BatteryUnitCapacityAh)
	return cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// SizingLoads converts the entries to engine loads, in order.
func (p *Project) SizingLoads() []sizing.Load {
	out := make([]sizing.Load, len(p.Loads))
	for i, e := range p.Loads {
		out[i] = e.Load()
	}
	return out
}

func (p *Project) AddLoad(e LoadEntry) {
	p.Loads = append(p.Loads, e)
}

func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

// Decode reads a project and rejects unknown fields, so that a typo in a
// parameter name does not silently fall back to the default.
func Decode(r io.Reader, format Format) (Project, error) {
	var p Project
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return Project{}, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Project{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Project{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return p, nil
}

func Encode(w io.Writer, p Project, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func LoadFile(path string) (Project, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Project{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("read project: %w", err)
	}
	return Decode(bytes.NewReader(data), format)
}

func SaveFile(path string, p Project) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, p, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}
