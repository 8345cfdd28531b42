package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Agrid-Dev/solarsizer/cmd/app"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// Sweep varies one system parameter over [From, To] in Step increments.
type Sweep struct {
	Param string
	From  float64
	To    float64
	Step  float64
}

var setters = map[string]func(*sizing.SystemConfig, float64){
	"sun_hours_per_day": func(c *sizing.SystemConfig, v float64) { c.SunHoursPerDay = v },
	"autonomy_days":     func(c *sizing.SystemConfig, v float64) { c.AutonomyDays = v },
	"safety_factor":     func(c *sizing.SystemConfig, v float64) { c.SafetyFactor = v },
	"derating_factor":   func(c *sizing.SystemConfig, v float64) { c.DeratingFactor = v },
}

// SweepProject sizes proj once per sweep step, starting from defaults with
// the project's own overrides applied.
func SweepProject(engine *sizing.Engine, defaults sizing.SystemConfig, proj project.Project, sweep Sweep, filename string) error {
	set, ok := setters[sweep.Param]
	if !ok {
		return fmt.Errorf("cannot sweep %q", sweep.Param)
	}
	if sweep.Step <= 0 || sweep.To < sweep.From {
		return fmt.Errorf("bad sweep range %v..%v step %v", sweep.From, sweep.To, sweep.Step)
	}

	base, err := proj.System.Apply(defaults)
	if err != nil {
		return fmt.Errorf("failed to apply project system: %w", err)
	}
	loads := proj.SizingLoads()

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{
		sweep.Param, "PVWatts", "Panels", "PanelsCritical", "BatteryAh", "Batteries", "BatteriesCritical", "ControllerAmps",
	}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	n := int((sweep.To-sweep.From)/sweep.Step + 1e-9)
	for i := 0; i <= n; i++ {
		v := sweep.From + float64(i)*sweep.Step
		cfg := base
		set(&cfg, v)

		res, err := engine.Run(loads, cfg)
		if err != nil {
			return fmt.Errorf("%s=%v: %w", sweep.Param, v, err)
		}

		if err := writer.Write([]string{
			fmt.Sprintf("%.2f", v),
			fmt.Sprintf("%.1f", res.Full.PV.RequiredWatts),
			fmt.Sprintf("%d", res.Full.PV.PanelCount),
			fmt.Sprintf("%d", res.Critical.PV.PanelCount),
			fmt.Sprintf("%.1f", res.Full.Battery.RequiredAh),
			fmt.Sprintf("%d", res.Full.Battery.Count),
			fmt.Sprintf("%d", res.Critical.Battery.Count),
			fmt.Sprintf("%.1f", res.ChargeController.Amps),
		}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	return nil
}

// newEngine builds the engine and defaults from the same configuration the
// solarsizer binary reads, so configured chemistries apply here too.
func newEngine(cfg app.Config) (*sizing.Engine, sizing.SystemConfig, error) {
	table, err := cfg.ChemistryTable()
	if err != nil {
		return nil, sizing.SystemConfig{}, err
	}
	engine, err := sizing.New(table)
	if err != nil {
		return nil, sizing.SystemConfig{}, err
	}
	defaults, err := cfg.SystemDefaults()
	if err != nil {
		return nil, sizing.SystemConfig{}, err
	}
	return engine, defaults, nil
}

func main() {
	var (
		configPath  string
		projectPath string
		out         string
		sweep       Sweep
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.StringVar(&projectPath, "project", "project.yaml", "project file (.yaml/.yml/.json)")
	flag.StringVar(&out, "out", "sensitivity.csv", "output CSV file")
	flag.StringVar(&sweep.Param, "param", "sun_hours_per_day", "parameter to sweep")
	flag.Float64Var(&sweep.From, "from", 2, "first value")
	flag.Float64Var(&sweep.To, "to", 7, "last value")
	flag.Float64Var(&sweep.Step, "step", 0.5, "increment")
	flag.Parse()

	log := zap.Must(zap.NewProduction())
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if l, err := app.NewLogger(cfg.Log); err == nil {
		log = l
	}
	defer func() { _ = log.Sync() }()

	engine, defaults, err := newEngine(cfg)
	if err != nil {
		log.Fatal("configure engine", zap.Error(err))
	}
	proj, err := project.LoadFile(projectPath)
	if err != nil {
		log.Fatal("load project", zap.Error(err))
	}
	if err := SweepProject(engine, defaults, proj, sweep, out); err != nil {
		log.Fatal("sweep", zap.String("param", sweep.Param), zap.Error(err))
	}
	log.Info("sweep written", zap.String("file", out), zap.String("param", sweep.Param))
}
