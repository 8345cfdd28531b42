package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Agrid-Dev/solarsizer/cmd/app"
	"github.com/Agrid-Dev/solarsizer/internal/catalog"
	"github.com/Agrid-Dev/solarsizer/internal/planner"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "solarsizer",
		Short: "Size off-grid solar systems from an appliance load list",
		Long: `solarsizer computes daily energy, battery bank, PV array, inverter and
charge controller sizes for an appliance load list, for the full load and
for the critical loads alone.

Configuration is read from --config (.yaml/.yml/.json) and SOLARSIZER_*
environment variables, e.g. SOLARSIZER_SYSTEM_SUN_HOURS_PER_DAY=5.5.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")

	load := func() (*runtime, error) { return setup(configPath) }
	root.AddCommand(
		newServeCmd(load),
		newSizeCmd(load),
		newWizardCmd(load),
		newChemistriesCmd(load),
	)
	return root
}

// runtime is what every command needs once configuration is loaded.
type runtime struct {
	cfg     app.Config
	log     *zap.Logger
	planner *planner.Planner
}

func setup(configPath string) (*runtime, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := app.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	p, err := newPlanner(cfg, log)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, planner: p}, nil
}

func newPlanner(cfg app.Config, log *zap.Logger) (*planner.Planner, error) {
	table, err := cfg.ChemistryTable()
	if err != nil {
		return nil, err
	}
	engine, err := sizing.New(table)
	if err != nil {
		return nil, err
	}
	defaults, err := cfg.SystemDefaults()
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}
	return planner.New(engine, cat, defaults, log)
}
