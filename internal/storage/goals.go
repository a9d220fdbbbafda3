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
)

// CreateGoal persists a new saving goal.
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.SavingGoal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saving_goals (
			id, user_id, name, target_amount, current_amount, currency,
			target_date, status, description, linked_account_id,
			completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Currency,
		goal.TargetDate,
		string(goal.Status),
		goal.Description,
		nullString(goal.LinkedAccountID),
		goal.CompletedAt,
		goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert saving goal %s: %w", goal.ID, err)
	}

	slog.Debug("created saving goal", "id", goal.ID, "target", goal.TargetAmount)
	return nil
}

// GetGoal returns a saving goal after verifying ownership.
func (s *SQLiteStorage) GetGoal(ctx context.Context, goalID, ownerID string) (*model.SavingGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(goalID, ownerID, "goalID"); err != nil {
		return nil, err
	}

	goal, err := scanGoal(s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+`
		FROM saving_goals
		WHERE id = ?
	`, goalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saving goal %s: %w", goalID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saving goal: %w", err)
	}

	if goal.UserID != ownerID {
		return nil, fmt.Errorf("saving goal %s: %w", goalID, common.ErrForbidden)
	}

	return goal, nil
}

// ListGoals returns a user's goals, newest first. Pass an empty status for all.
func (s *SQLiteStorage) ListGoals(ctx context.Context, ownerID string, status model.GoalStatus) ([]model.SavingGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + goalColumns + ` FROM saving_goals WHERE user_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query saving goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.SavingGoal
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan saving goal: %w", scanErr)
		}
		goals = append(goals, *goal)
	}

	return goals, rows.Err()
}

// UpdateGoal overwrites a goal's fields. The stored row must belong to
// goal.UserID.
func (s *SQLiteStorage) UpdateGoal(ctx context.Context, goal *model.SavingGoal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	if _, err := s.GetGoal(ctx, goal.ID, goal.UserID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE saving_goals
		SET name = ?, target_amount = ?, current_amount = ?, currency = ?,
		    target_date = ?, status = ?, description = ?, linked_account_id = ?,
		    completed_at = ?
		WHERE id = ?
	`,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.Currency,
		goal.TargetDate,
		string(goal.Status),
		goal.Description,
		nullString(goal.LinkedAccountID),
		goal.CompletedAt,
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update saving goal %s: %w", goal.ID, err)
	}

	return nil
}

// DeleteGoal removes a saving goal after verifying ownership.
func (s *SQLiteStorage) DeleteGoal(ctx context.Context, goalID, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(goalID, ownerID, "goalID"); err != nil {
		return err
	}

	if _, err := s.GetGoal(ctx, goalID, ownerID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM saving_goals WHERE id = ?`, goalID); err != nil {
		return fmt.Errorf("failed to delete saving goal %s: %w", goalID, err)
	}

	return nil
}

const goalColumns = `id, user_id, name, target_amount, current_amount, currency,
	target_date, status, description, linked_account_id, completed_at, created_at`

func scanGoal(row rowScanner) (*model.SavingGoal, error) {
	var goal model.SavingGoal
	var status string
	var description, linkedAccountID sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Name,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&goal.Currency,
		&goal.TargetDate,
		&status,
		&description,
		&linkedAccountID,
		&completedAt,
		&goal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	goal.Status = model.GoalStatus(status)
	goal.Description = description.String
	goal.LinkedAccountID = linkedAccountID.String
	if completedAt.Valid {
		goal.CompletedAt = &completedAt.Time
	}

	return &goal, nil
}
