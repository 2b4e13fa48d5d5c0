package services

import (
	"database/sql"

	"github.com/officeflow/backend/internal/infrastructure/persistence"
)

// ServiceManager wires the repositories and services together and is the
// single composition point handed to the HTTP layer.
type ServiceManager struct {
	Workflows  *WorkflowService
	Instances  *InstanceService
	Simulation *SimulationService
}

// NewServiceManager creates all services backed by the given database
func NewServiceManager(db *sql.DB) *ServiceManager {
	workflowRepo := persistence.NewWorkflowRepository(db)
	instanceRepo := persistence.NewInstanceRepository(db)
	txManager := persistence.NewTransactionManager(db)

	return &ServiceManager{
		Workflows:  NewWorkflowService(workflowRepo, instanceRepo, txManager),
		Instances:  NewInstanceService(workflowRepo, instanceRepo, txManager),
		Simulation: NewSimulationService(workflowRepo),
	}
}
