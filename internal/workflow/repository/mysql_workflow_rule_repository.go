package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/workflow/domain"
)

const mysqlWorkflowRuleColumns = `id, trigger_command, trigger_system, follow_up_command,
	follow_up_system, follow_up_params, delay_seconds, enabled, created_at`

// MySQLWorkflowRuleRepository handles workflow rule persistence for MySQL
type MySQLWorkflowRuleRepository struct {
	db *sql.DB
}

// NewMySQLWorkflowRuleRepository creates a new MySQLWorkflowRuleRepository
func NewMySQLWorkflowRuleRepository(db *sql.DB) *MySQLWorkflowRuleRepository {
	return &MySQLWorkflowRuleRepository{
		db: db,
	}
}

// Create inserts a new workflow rule.
func (r *MySQLWorkflowRuleRepository) Create(ctx context.Context, rule *domain.WorkflowRule) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO workflow_rules (id, trigger_command, trigger_system, follow_up_command,
				  follow_up_system, follow_up_params, delay_seconds, enabled, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := rule.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, rule.TriggerCommand, rule.TriggerSystem,
		rule.FollowUpCommand, rule.FollowUpSystem, rule.FollowUpParams, rule.DelaySeconds, rule.Enabled)

	return err
}

// GetByID retrieves a workflow rule by its ID.
func (r *MySQLWorkflowRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mysqlWorkflowRuleColumns + ` FROM workflow_rules WHERE id = ?`

	rule, err := scanMySQLWorkflowRule(querier.QueryRowContext(ctx, query, idBytes))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return rule, err
}

// GetEnabledByTrigger retrieves the enabled rules matching a trigger command
// and system exactly, in creation order.
func (r *MySQLWorkflowRuleRepository) GetEnabledByTrigger(
	ctx context.Context,
	triggerCommand string,
	triggerSystem string,
) ([]*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlWorkflowRuleColumns + `
			  FROM workflow_rules
			  WHERE enabled = TRUE AND trigger_command = ? AND trigger_system = ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, triggerCommand, triggerSystem)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectWorkflowRules(rows, scanMySQLWorkflowRule)
}

// List retrieves workflow rules with pagination, newest first.
func (r *MySQLWorkflowRuleRepository) List(ctx context.Context, limit, offset int) ([]*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlWorkflowRuleColumns + `
			  FROM workflow_rules
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectWorkflowRules(rows, scanMySQLWorkflowRule)
}

// scanMySQLWorkflowRule scans one workflow rule row, decoding the BINARY(16) id.
func scanMySQLWorkflowRule(row rowScanner) (*domain.WorkflowRule, error) {
	var rule domain.WorkflowRule
	var idBytes []byte

	err := row.Scan(&idBytes, &rule.TriggerCommand, &rule.TriggerSystem, &rule.FollowUpCommand,
		&rule.FollowUpSystem, &rule.FollowUpParams, &rule.DelaySeconds, &rule.Enabled, &rule.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := rule.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, err
	}

	return &rule, nil
}
