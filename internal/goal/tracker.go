// Package goal implements the savings goal tracker. Progress figures are
// derived on every read; only the stored amount and status persist.
package goal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

// Tracker manages savings goals.
type Tracker struct {
	storage service.Storage
	now     func() time.Time
}

// NewTracker creates a goal tracker backed by the given storage.
func NewTracker(storage service.Storage) (*Tracker, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	return &Tracker{storage: storage, now: time.Now}, nil
}

// CreateParams carries the fields for a new savings goal.
type CreateParams struct {
	TargetDate      time.Time
	Name            string
	Description     string
	Currency        string
	LinkedAccountID string
	TargetAmount    float64
	CurrentAmount   float64
}

// Create persists a new goal. It starts active with a zero balance unless an
// initial amount is given.
func (t *Tracker) Create(ctx context.Context, userID string, params CreateParams) (*model.GoalView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user identity is required", common.ErrValidation)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: goal name is required", common.ErrValidation)
	}
	if params.TargetAmount <= 0 {
		return nil, fmt.Errorf("%w: target amount must be positive, got %v", common.ErrValidation, params.TargetAmount)
	}
	if params.CurrentAmount < 0 {
		return nil, fmt.Errorf("%w: current amount cannot be negative", common.ErrValidation)
	}
	if params.TargetDate.IsZero() {
		return nil, fmt.Errorf("%w: target date is required", common.ErrValidation)
	}
	if params.LinkedAccountID != "" {
		if _, err := t.storage.GetAccount(ctx, params.LinkedAccountID, userID); err != nil {
			return nil, err
		}
	}

	goal := &model.SavingGoal{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            params.Name,
		Description:     params.Description,
		TargetAmount:    params.TargetAmount,
		CurrentAmount:   params.CurrentAmount,
		Currency:        params.Currency,
		TargetDate:      params.TargetDate,
		LinkedAccountID: params.LinkedAccountID,
		Status:          model.GoalStatusActive,
	}
	if err := t.storage.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return t.view(goal), nil
}

// Get returns the goal with derived progress figures.
func (t *Tracker) Get(ctx context.Context, userID, goalID string) (*model.GoalView, error) {
	goal, err := t.storage.GetGoal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	return t.view(goal), nil
}

// List returns the user's goals, optionally filtered by status, each with
// derived figures attached.
func (t *Tracker) List(ctx context.Context, userID string, status model.GoalStatus) ([]model.GoalView, error) {
	goals, err := t.storage.ListGoals(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	views := make([]model.GoalView, 0, len(goals))
	for i := range goals {
		views = append(views, *t.view(&goals[i]))
	}
	return views, nil
}

// Update overwrites a goal's editable fields.
func (t *Tracker) Update(ctx context.Context, userID string, goal *model.SavingGoal) (*model.GoalView, error) {
	if goal == nil {
		return nil, fmt.Errorf("%w: goal is required", common.ErrValidation)
	}
	if goal.TargetAmount <= 0 {
		return nil, fmt.Errorf("%w: target amount must be positive, got %v", common.ErrValidation, goal.TargetAmount)
	}
	if !model.ValidGoalStatus(goal.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, goal.Status)
	}
	goal.UserID = userID
	if err := t.storage.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return t.view(goal), nil
}

// Delete removes a goal.
func (t *Tracker) Delete(ctx context.Context, userID, goalID string) error {
	return t.storage.DeleteGoal(ctx, goalID, userID)
}

// UpdateProgress adds amount to the goal's saved balance. The balance is
// clamped to the target; reaching the target completes the goal. Completed
// and cancelled goals reject further progress.
func (t *Tracker) UpdateProgress(ctx context.Context, userID, goalID string, amount float64) (*model.GoalView, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: progress amount must be positive, got %v", common.ErrValidation, amount)
	}
	goal, err := t.storage.GetGoal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	if goal.Status == model.GoalStatusCompleted || goal.Status == model.GoalStatusCancelled {
		return nil, fmt.Errorf("%w: cannot add progress to a %s goal", common.ErrInvalidOperation, goal.Status)
	}

	goal.CurrentAmount += amount
	if goal.CurrentAmount >= goal.TargetAmount {
		goal.CurrentAmount = goal.TargetAmount
		goal.Status = model.GoalStatusCompleted
		completed := t.now()
		goal.CompletedAt = &completed
	}
	if err := t.storage.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return t.view(goal), nil
}

// Complete marks a goal completed regardless of balance, snapping the saved
// amount up to the target. Completing an already completed goal is an error.
func (t *Tracker) Complete(ctx context.Context, userID, goalID string) (*model.GoalView, error) {
	goal, err := t.storage.GetGoal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	if goal.Status == model.GoalStatusCompleted {
		return nil, fmt.Errorf("%w: goal is already completed", common.ErrInvalidOperation)
	}
	goal.CurrentAmount = goal.TargetAmount
	goal.Status = model.GoalStatusCompleted
	completed := t.now()
	goal.CompletedAt = &completed
	if err := t.storage.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return t.view(goal), nil
}

// view computes the derived figures for a goal. Days left floors at zero for
// display, but the overdue flag uses the raw value so a past-due active goal
// still reads as overdue.
func (t *Tracker) view(goal *model.SavingGoal) *model.GoalView {
	remaining := goal.TargetAmount - goal.CurrentAmount
	if remaining < 0 {
		remaining = 0
	}

	progress := 0.0
	if goal.TargetAmount > 0 {
		progress = common.Round2(goal.CurrentAmount / goal.TargetAmount * 100)
	}

	rawDays := int(math.Ceil(goal.TargetDate.Sub(t.now()).Hours() / 24))
	daysLeft := rawDays
	if daysLeft < 0 {
		daysLeft = 0
	}

	monthlyRequired := 0.0
	if remaining > 0 && rawDays > 0 {
		monthlyRequired = math.Ceil(remaining / (float64(rawDays) / 30))
	}

	return &model.GoalView{
		SavingGoal:      *goal,
		Progress:        progress,
		Remaining:       remaining,
		MonthlyRequired: monthlyRequired,
		DaysLeft:        daysLeft,
		IsOverdue:       rawDays < 0 && goal.Status == model.GoalStatusActive,
	}
}
