package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

// CreateBudget persists a new budget.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (
			id, user_id, name, category_id, amount, period, start_date,
			end_date, spent, alert_enabled, alert_threshold, is_active,
			notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		budget.ID,
		budget.UserID,
		budget.Name,
		nullString(budget.CategoryID),
		budget.Amount,
		string(budget.Period),
		budget.StartDate,
		budget.EndDate,
		budget.Spent,
		budget.AlertEnabled,
		budget.AlertThreshold,
		budget.IsActive,
		budget.Notes,
		budget.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget %s: %w", budget.ID, err)
	}

	slog.Debug("created budget", "id", budget.ID, "name", budget.Name)
	return nil
}

// GetBudget returns a budget after verifying ownership.
func (s *SQLiteStorage) GetBudget(ctx context.Context, budgetID, ownerID string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(budgetID, ownerID, "budgetID"); err != nil {
		return nil, err
	}

	budget, err := scanBudget(s.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE id = ?
	`, budgetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", budgetID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	if budget.UserID != ownerID {
		return nil, fmt.Errorf("budget %s: %w", budgetID, common.ErrForbidden)
	}

	return budget, nil
}

// ListBudgets returns a user's budgets matching the filter, newest first.
func (s *SQLiteStorage) ListBudgets(ctx context.Context, ownerID string, filter service.BudgetFilter) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{ownerID}

	if filter.Period != "" {
		query += ` AND period = ?`
		args = append(args, string(filter.Period))
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		budget, scanErr := scanBudget(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", scanErr)
		}
		budgets = append(budgets, *budget)
	}

	return budgets, rows.Err()
}

// UpdateBudget overwrites a budget's editable fields. Spent is not touched
// here; it moves only through AddToBudgetSpent.
func (s *SQLiteStorage) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	if _, err := s.GetBudget(ctx, budget.ID, budget.UserID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET name = ?, category_id = ?, amount = ?, period = ?, start_date = ?,
		    end_date = ?, alert_enabled = ?, alert_threshold = ?, is_active = ?, notes = ?
		WHERE id = ?
	`,
		budget.Name,
		nullString(budget.CategoryID),
		budget.Amount,
		string(budget.Period),
		budget.StartDate,
		budget.EndDate,
		budget.AlertEnabled,
		budget.AlertThreshold,
		budget.IsActive,
		budget.Notes,
		budget.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget %s: %w", budget.ID, err)
	}

	return nil
}

// DeleteBudget removes a budget after verifying ownership.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, budgetID, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(budgetID, ownerID, "budgetID"); err != nil {
		return err
	}

	if _, err := s.GetBudget(ctx, budgetID, ownerID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, budgetID); err != nil {
		return fmt.Errorf("failed to delete budget %s: %w", budgetID, err)
	}

	return nil
}

// AddToBudgetSpent adds amount to the budget's running spent accumulator as a
// single atomic increment, mirroring the account delta-apply.
func (s *SQLiteStorage) AddToBudgetSpent(ctx context.Context, budgetID, ownerID string, amount float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(budgetID, ownerID, "budgetID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE budgets
		SET spent = spent + ?
		WHERE id = ? AND user_id = ?
	`, amount, budgetID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update budget spent for %s: %w", budgetID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM budgets WHERE id = ?)`, budgetID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check budget existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("budget %s: %w", budgetID, common.ErrNotFound)
		}
		return fmt.Errorf("budget %s: %w", budgetID, common.ErrForbidden)
	}

	return nil
}

// GetActiveBudgetsForCategory returns all active budgets scoped to a category.
func (s *SQLiteStorage) GetActiveBudgetsForCategory(ctx context.Context, ownerID, categoryID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(categoryID, ownerID, "categoryID"); err != nil {
		return nil, err
	}

	active := true
	return s.ListBudgets(ctx, ownerID, service.BudgetFilter{
		IsActive:   &active,
		CategoryID: categoryID,
	})
}

const budgetColumns = `id, user_id, name, category_id, amount, period, start_date,
	end_date, spent, alert_enabled, alert_threshold, is_active, notes, created_at`

func scanBudget(row rowScanner) (*model.Budget, error) {
	var budget model.Budget
	var period string
	var categoryID, notes sql.NullString
	var endDate sql.NullTime

	err := row.Scan(
		&budget.ID,
		&budget.UserID,
		&budget.Name,
		&categoryID,
		&budget.Amount,
		&period,
		&budget.StartDate,
		&endDate,
		&budget.Spent,
		&budget.AlertEnabled,
		&budget.AlertThreshold,
		&budget.IsActive,
		&notes,
		&budget.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	budget.Period = model.BudgetPeriod(period)
	budget.CategoryID = categoryID.String
	budget.Notes = notes.String
	if endDate.Valid {
		budget.EndDate = &endDate.Time
	}

	return &budget, nil
}
