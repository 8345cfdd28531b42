package testutil

import (
	"sync"

	"github.com/Agrid-Dev/solarsizer/internal/planner"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// FakePlannerService is a reusable fake implementing ports.PlannerService.
// Put ONLY what multiple test packages need here.
type FakePlannerService struct {
	mu sync.Mutex

	DefaultsCfg sizing.SystemConfig
	Table       sizing.ChemistryTable

	PlanCalled bool
	PlanArg    project.Project
	PlanResult planner.Plan
	PlanErr    error
}

func NewFakePlannerService() *FakePlannerService {
	return &FakePlannerService{
		DefaultsCfg: sizing.DefaultSystemConfig(),
		Table:       sizing.DefaultChemistryTable(),
		PlanResult: planner.Plan{
			Name:   "fake",
			System: sizing.DefaultSystemConfig(),
			Result: sizing.Result{
				Energy:   sizing.EnergyTotals{TotalWh: 4340, CriticalWh: 3840},
				Inverter: sizing.InverterSpec{ContinuousWatts: 260, Watts: 338, SurgeWatts: 260},
			},
		},
	}
}

func (f *FakePlannerService) Plan(p project.Project) (planner.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlanCalled = true
	f.PlanArg = p
	if f.PlanErr != nil {
		return planner.Plan{}, f.PlanErr
	}
	return f.PlanResult, nil
}

func (f *FakePlannerService) Defaults() sizing.SystemConfig { return f.DefaultsCfg }

func (f *FakePlannerService) Chemistries() sizing.ChemistryTable { return f.Table }

// LastPlan returns the recorded Plan call.
func (f *FakePlannerService) LastPlan() (bool, project.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PlanCalled, f.PlanArg
}
