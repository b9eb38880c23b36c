// Package repository provides data persistence implementations for workflow rules.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/chronoshq/chronos/internal/database"
	apperrors "github.com/chronoshq/chronos/internal/errors"
	"github.com/chronoshq/chronos/internal/workflow/domain"
)

const postgresWorkflowRuleColumns = `id, trigger_command, trigger_system, follow_up_command,
	follow_up_system, follow_up_params, delay_seconds, enabled, created_at`

// PostgreSQLWorkflowRuleRepository handles workflow rule persistence for PostgreSQL
type PostgreSQLWorkflowRuleRepository struct {
	db *sql.DB
}

// NewPostgreSQLWorkflowRuleRepository creates a new PostgreSQLWorkflowRuleRepository
func NewPostgreSQLWorkflowRuleRepository(db *sql.DB) *PostgreSQLWorkflowRuleRepository {
	return &PostgreSQLWorkflowRuleRepository{
		db: db,
	}
}

// Create inserts a new workflow rule.
func (r *PostgreSQLWorkflowRuleRepository) Create(ctx context.Context, rule *domain.WorkflowRule) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO workflow_rules (id, trigger_command, trigger_system, follow_up_command,
				  follow_up_system, follow_up_params, delay_seconds, enabled, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := querier.ExecContext(ctx, query, rule.ID, rule.TriggerCommand, rule.TriggerSystem,
		rule.FollowUpCommand, rule.FollowUpSystem, rule.FollowUpParams, rule.DelaySeconds, rule.Enabled)

	return err
}

// GetByID retrieves a workflow rule by its ID.
func (r *PostgreSQLWorkflowRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresWorkflowRuleColumns + ` FROM workflow_rules WHERE id = $1`

	rule, err := scanPostgresWorkflowRule(querier.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return rule, err
}

// GetEnabledByTrigger retrieves the enabled rules matching a trigger command
// and system exactly, in creation order.
func (r *PostgreSQLWorkflowRuleRepository) GetEnabledByTrigger(
	ctx context.Context,
	triggerCommand string,
	triggerSystem string,
) ([]*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresWorkflowRuleColumns + `
			  FROM workflow_rules
			  WHERE enabled = TRUE AND trigger_command = $1 AND trigger_system = $2
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, triggerCommand, triggerSystem)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectWorkflowRules(rows, scanPostgresWorkflowRule)
}

// List retrieves workflow rules with pagination, newest first.
func (r *PostgreSQLWorkflowRuleRepository) List(ctx context.Context, limit, offset int) ([]*domain.WorkflowRule, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresWorkflowRuleColumns + `
			  FROM workflow_rules
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return collectWorkflowRules(rows, scanPostgresWorkflowRule)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// collectWorkflowRules drains rows with the given scanner.
func collectWorkflowRules(rows *sql.Rows, scan func(rowScanner) (*domain.WorkflowRule, error)) ([]*domain.WorkflowRule, error) {
	var rules []*domain.WorkflowRule
	for rows.Next() {
		rule, err := scan(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// scanPostgresWorkflowRule scans one workflow rule row.
func scanPostgresWorkflowRule(row rowScanner) (*domain.WorkflowRule, error) {
	var rule domain.WorkflowRule

	err := row.Scan(&rule.ID, &rule.TriggerCommand, &rule.TriggerSystem, &rule.FollowUpCommand,
		&rule.FollowUpSystem, &rule.FollowUpParams, &rule.DelaySeconds, &rule.Enabled, &rule.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}
