package ports

import (
	"github.com/Agrid-Dev/solarsizer/internal/planner"
	"github.com/Agrid-Dev/solarsizer/internal/project"
	"github.com/Agrid-Dev/solarsizer/internal/sizing"
)

// PlannerService is the port used by controllers (HTTP/MQTT/CLI).
type PlannerService interface {
	Plan(project.Project) (planner.Plan, error)
	Defaults() sizing.SystemConfig
	Chemistries() sizing.ChemistryTable
}
