package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// EnvPrefix marks the environment variables read by LoadConfig.
const EnvPrefix = "SOLARSIZER_"

type Config struct {
	InstanceID  string            `koanf:"instance_id"`
	Log         LogConfig         `koanf:"log"`
	Controllers ControllersConfig `koanf:"controllers"`

	System      SystemConfig               `koanf:"system"`
	Chemistries map[string]ChemistryConfig `koanf:"chemistries,omitempty"`
	CatalogPath string                     `koanf:"catalog_path"`
}

type ControllersConfig struct {
	HTTP HTTPConfig `koanf:"http"`
	MQTT MQTTConfig `koanf:"mqtt"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `koanf:"format"` // "json" | "console"
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled        bool   `koanf:"enabled"`
	BrokerURL      string `koanf:"broker_url"`
	ClientID       string `koanf:"client_id"`
	BaseTopic      string `koanf:"base_topic"`
	QoS            byte   `koanf:"qos"`
	RetainDefaults bool   `koanf:"retain_defaults"`
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`
}

// SystemConfig holds the default system parameters applied to every
// project before its own overrides.
type SystemConfig struct {
	Chemistry             string  `koanf:"chemistry"` // a key of the chemistry table
	PanelRatedWatts       float64 `koanf:"panel_rated_watts"`
	SystemVoltage         int     `koanf:"system_voltage"`
	SunHoursPerDay        float64 `koanf:"sun_hours_per_day"`
	AutonomyDays          float64 `koanf:"autonomy_days"`
	PanelEfficiency       float64 `koanf:"panel_efficiency"`
	DeratingFactor        float64 `koanf:"derating_factor"`
	SafetyFactor          float64 `koanf:"safety_factor"`
	BatteryUnitCapacityAh float64 `koanf:"battery_unit_capacity_ah"`
}

type ChemistryConfig struct {
	DepthOfDischarge    float64 `koanf:"depth_of_discharge"`
	RoundTripEfficiency float64 `koanf:"round_trip_efficiency"`
}

func defaultConfig() Config {
	d := sizing.DefaultSystemConfig()
	return Config{
		InstanceID: "default",
		Log:        LogConfig{Level: "info", Format: "json"},
		Controllers: ControllersConfig{
			HTTP: HTTPConfig{Addr: ":8080"},
			MQTT: MQTTConfig{BrokerURL: "tcp://localhost:1883", RetainDefaults: true},
		},
		System: SystemConfig{
			Chemistry:             d.Chemistry.String(),
			PanelRatedWatts:       d.PanelRatedWatts,
			SystemVoltage:         d.SystemVoltage,
			SunHoursPerDay:        d.SunHoursPerDay,
			AutonomyDays:          d.AutonomyDays,
			PanelEfficiency:       d.PanelEfficiency,
			DeratingFactor:        d.DeratingFactor,
			SafetyFactor:          d.SafetyFactor,
			BatteryUnitCapacityAh: d.BatteryUnitCapacityAh,
		},
	}
}

// LoadConfig layers built-in defaults, the config file and SOLARSIZER_*
// environment variables, in that order. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyTransform(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.InstanceID == "" {
		cfg.InstanceID = "default"
	}
	// Explicit addr preferred, else support PORT (common in containers).
	if os.Getenv(EnvPrefix+"CONTROLLERS_HTTP_ADDR") == "" {
		if v := os.Getenv("PORT"); v != "" {
			cfg.Controllers.HTTP.Addr = ":" + v
		}
	}
	if cfg.Controllers.HTTP.Addr == "" {
		cfg.Controllers.HTTP.Addr = ":8080"
	}
	if !cfg.Controllers.HTTP.Enabled && !cfg.Controllers.MQTT.Enabled {
		cfg.Controllers.HTTP.Enabled = true
	}
}

// sections whose keys are split once after the section name.
var sections = []string{"log", "system"}

// chemistryFields are the per-chemistry keys; chemistry names may
// themselves contain underscores, so they are matched from the end.
var chemistryFields = []string{"depth_of_discharge", "round_trip_efficiency"}

// envKeyTransform maps an environment key (prefix already removed) to a
// koanf path, e.g. CONTROLLERS_HTTP_ADDR -> controllers.http.addr and
// CHEMISTRIES_LEAD_ACID_DEPTH_OF_DISCHARGE -> chemistries.lead_acid.depth_of_discharge.
func envKeyTransform(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(k, "controllers_"); ok {
		ctrl, field, ok := strings.Cut(rest, "_")
		if !ok {
			return k
		}
		return "controllers." + ctrl + "." + field
	}

	if rest, ok := strings.CutPrefix(k, "chemistries_"); ok {
		for _, f := range chemistryFields {
			if name, ok := strings.CutSuffix(rest, "_"+f); ok && name != "" {
				return "chemistries." + name + "." + f
			}
		}
		return k
	}

	for _, s := range sections {
		if rest, ok := strings.CutPrefix(k, s+"_"); ok {
			return s + "." + rest
		}
	}
	return k
}

// SystemDefaults converts the system section to engine parameters.
func (c Config) SystemDefaults() (sizing.SystemConfig, error) {
	chem, err := sizing.ParseChemistry(c.System.Chemistry)
	if err != nil {
		return sizing.SystemConfig{}, err
	}
	return sizing.SystemConfig{
		Chemistry:             chem,
		PanelRatedWatts:       c.System.PanelRatedWatts,
		SystemVoltage:         c.System.SystemVoltage,
		SunHoursPerDay:        c.System.SunHoursPerDay,
		AutonomyDays:          c.System.AutonomyDays,
		PanelEfficiency:       c.System.PanelEfficiency,
		DeratingFactor:        c.System.DeratingFactor,
		SafetyFactor:          c.System.SafetyFactor,
		BatteryUnitCapacityAh: c.System.BatteryUnitCapacityAh,
	}, nil
}

// ChemistryTable returns the built-in table with the configured entries
// overriding or adding chemistries. Unset fields of a built-in chemistry
// keep their built-in value.
func (c Config) ChemistryTable() (sizing.ChemistryTable, error) {
	t := sizing.DefaultChemistryTable()
	for name, p := range c.Chemistries {
		chem, err := sizing.ParseChemistry(name)
		if err != nil {
			return nil, err
		}
		params := t[chem]
		if p.DepthOfDischarge != 0 {
			params.DepthOfDischarge = p.DepthOfDischarge
		}
		if p.RoundTripEfficiency != 0 {
			params.RoundTripEfficiency = p.RoundTripEfficiency
		}
		t = t.With(chem, params)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
