package bootstrap

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/officeflow/backend/pkg/constants"
)

// InitializeSchema creates the workflow tables if they do not exist yet.
// DDL is idempotent so the server can run against a fresh or an existing
// database without a separate migration step.
func InitializeSchema(db *sql.DB) error {
	log.Println("🔧 Initializing workflow schema...")

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			entity_type VARCHAR(100) NOT NULL,
			nodes JSON NOT NULL,
			edges JSON NOT NULL,
			version INT NOT NULL DEFAULT 1,
			status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_by VARCHAR(36) NOT NULL,
			created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_modified_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_workflow_entity_type (entity_type),
			INDEX idx_workflow_status (status)
		)`, constants.TableWorkflow),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			workflow_id VARCHAR(36) NOT NULL,
			entity_id VARCHAR(36) NOT NULL,
			entity_type VARCHAR(100) NOT NULL,
			current_node_id VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'RUNNING',
			variables JSON,
			context_data JSON,
			node_history JSON NOT NULL,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP NULL,
			INDEX idx_instance_workflow (workflow_id),
			INDEX idx_instance_entity (entity_type, entity_id),
			INDEX idx_instance_status (status)
		)`, constants.TableWorkflowInstance),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("✅ Workflow schema ready")
	return nil
}
