// Package planner runs a project through the sizing engine, matches the
// result against the component catalog and assembles the bill of materials.
package planner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Agrid-Dev/solarsizer/internal/catalog"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/report"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// Plan is the complete answer for one project.
type Plan struct {
	Name      string
	System    sizing.SystemConfig
	Loads     []sizing.Load
	Result    sizing.Result
	Selection catalog.Selection
	BOM       report.BillOfMaterials
	Summary   []string
}

// Document is the text-report view of the plan.
func (p Plan) Document() report.Document {
	title := "Solar System Sizing Report"
	if p.Name != "" {
		title += ": " + p.Name
	}
	return report.Document{
		Title:    title,
		Loads:    p.Loads,
		Summary:  p.Summary,
		BOM:      p.BOM,
		TopLoads: p.Result.TopLoads,
	}
}

type Planner struct {
	engine   *sizing.Engine
	catalog  catalog.Catalog
	defaults sizing.SystemConfig
	log      *zap.Logger
}

// New checks defaults against the engine's chemistry table so that a bad
// configuration fails at startup rather than on the first request.
func New(engine *sizing.Engine, cat catalog.Catalog, defaults sizing.SystemConfig, log *zap.Logger) (*Planner, error) {
	if engine == nil {
		return nil, errors.New("planner: engine is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := engine.ValidateConfig(defaults); err != nil {
		return nil, fmt.Errorf("planner: default system: %w", err)
	}
	return &Planner{engine: engine, catalog: cat, defaults: defaults, log: log}, nil
}

func (p *Planner) Defaults() sizing.SystemConfig { return p.defaults }

func (p *Planner) Chemistries() sizing.ChemistryTable { return p.engine.Chemistries() }

func (p *Planner) Plan(proj project.Project) (Plan, error) {
	cfg, err := proj.System.Apply(p.defaults)
	if err != nil {
		return Plan{}, err
	}
	loads := proj.SizingLoads()

	res, err := p.engine.Run(loads, cfg)
	if err != nil {
		p.log.Debug("sizing rejected", zap.String("project", proj.Name), zap.Error(err))
		return Plan{}, err
	}

	sel := p.catalog.Select(cfg, res)
	for part, m := range map[string]catalog.Match{
		"panel":             sel.Panel,
		"battery":           sel.Battery,
		"inverter":          sel.Inverter,
		"charge_controller": sel.ChargeController,
	} {
		if !m.Adequate && m.Target > 0 {
			p.log.Warn("catalog part does not match sizing",
				zap.String("part", part),
				zap.Float64("target", m.Target),
				zap.String("fallback", m.SKU.Model),
				zap.String("note", m.Note),
			)
		}
	}

	p.log.Debug("sized project",
		zap.String("project", proj.Name),
		zap.Int("loads", len(loads)),
		zap.Float64("total_wh", res.Energy.TotalWh),
		zap.Float64("critical_wh", res.Energy.CriticalWh),
		zap.Int("panels", res.Full.PV.PanelCount),
		zap.Int("batteries", res.Full.Battery.Count),
	)

	bom, err := report.Build(cfg, res, sel)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Name:      proj.Name,
		System:    cfg,
		Loads:     loads,
		Result:    res,
		Selection: sel,
		BOM:       bom,
		Summary:   report.Summary(cfg, res),
	}, nil
}
