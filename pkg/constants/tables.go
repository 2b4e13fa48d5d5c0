package constants

// Table names
const (
	TableWorkflow         = "workflow"
	TableWorkflowInstance = "workflow_instance"
)

// Common field names
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldDescription      = "description"
	FieldEntityType       = "entity_type"
	FieldNodes            = "nodes"
	FieldEdges            = "edges"
	FieldVersion          = "version"
	FieldStatus           = "status"
	FieldIsDefault        = "is_default"
	FieldCreatedBy        = "created_by"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
)

// Workflow instance field names
const (
	FieldWorkflowID    = "workflow_id"
	FieldEntityID      = "entity_id"
	FieldCurrentNodeID = "current_node_id"
	FieldVariables     = "variables"
	FieldContextData   = "context_data"
	FieldNodeHistory   = "node_history"
	FieldStartedAt     = "started_at"
	FieldCompletedAt   = "completed_at"
)
