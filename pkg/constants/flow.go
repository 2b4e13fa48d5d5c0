package constants

// Node type constants
const (
	NodeTypeStart     = "start"
	NodeTypeApproval  = "approval"
	NodeTypeCondition = "condition"
	NodeTypeParallel  = "parallel"
	NodeTypeEnd       = "end"
)

// Assignee type constants
const (
	AssigneeTypeUser       = "user"
	AssigneeTypeRole       = "role"
	AssigneeTypeDepartment = "department"
	AssigneeTypeApplicant  = "applicant"
)

// Parallel approval mode constants (countersign vs. any-one-signs)
const (
	ParallelTypeAll = "all"
	ParallelTypeAny = "any"
)

// Workflow definition status constants
const (
	WorkflowStatusDraft     = "DRAFT"
	WorkflowStatusPublished = "PUBLISHED"
)

// Workflow instance status constants
const (
	InstanceStatusRunning   = "RUNNING"
	InstanceStatusCompleted = "COMPLETED"
	InstanceStatusRejected  = "REJECTED"
)

// Node processing actions accepted by the instance engine
const (
	NodeActionApprove = "approve"
	NodeActionReject  = "reject"
)

// Node history actions
const (
	HistoryActionEnter    = "enter"
	HistoryActionComplete = "complete"
	HistoryActionReject   = "reject"
)
