// Package budget implements the budget tracker: spending caps per period with
// a running spent accumulator and a derived status view.
package budget

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

// Default alert threshold percentage applied on create.
const defaultAlertThreshold = 80

// Tracker manages budgets and their derived status.
type Tracker struct {
	storage service.Storage
	now     func() time.Time
}

// NewTracker creates a budget tracker backed by the given storage.
func NewTracker(storage service.Storage) (*Tracker, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	return &Tracker{storage: storage, now: time.Now}, nil
}

// CreateParams carries the fields for a new budget.
type CreateParams struct {
	StartDate      time.Time
	EndDate        *time.Time
	AlertEnabled   *bool
	AlertThreshold *float64
	Name           string
	CategoryID     string
	Notes          string
	Period         model.BudgetPeriod
	Amount         float64
}

// Create persists a new budget with the standard defaults: spent starts at
// zero, alerts are on at 80%, and the budget is active.
func (t *Tracker) Create(ctx context.Context, userID string, params CreateParams) (*model.Budget, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user identity is required", common.ErrValidation)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: budget name is required", common.ErrValidation)
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: budget amount must be positive, got %v", common.ErrValidation, params.Amount)
	}
	if !model.ValidBudgetPeriod(params.Period) {
		return nil, fmt.Errorf("%w: unknown period %q", common.ErrValidation, params.Period)
	}
	if params.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", common.ErrValidation)
	}
	if params.CategoryID != "" {
		if _, err := t.storage.GetCategory(ctx, params.CategoryID, userID); err != nil {
			return nil, err
		}
	}

	budget := &model.Budget{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           params.Name,
		CategoryID:     params.CategoryID,
		Amount:         params.Amount,
		Period:         params.Period,
		StartDate:      params.StartDate,
		EndDate:        params.EndDate,
		Spent:          0,
		AlertEnabled:   true,
		AlertThreshold: defaultAlertThreshold,
		IsActive:       true,
		Notes:          params.Notes,
	}
	if params.AlertEnabled != nil {
		budget.AlertEnabled = *params.AlertEnabled
	}
	if params.AlertThreshold != nil {
		budget.AlertThreshold = *params.AlertThreshold
	}

	if err := t.storage.CreateBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Get returns a budget after the ownership check.
func (t *Tracker) Get(ctx context.Context, userID, budgetID string) (*model.Budget, error) {
	return t.storage.GetBudget(ctx, budgetID, userID)
}

// List returns a user's budgets matching the filter.
func (t *Tracker) List(ctx context.Context, userID string, filter service.BudgetFilter) ([]model.Budget, error) {
	return t.storage.ListBudgets(ctx, userID, filter)
}

// Update overwrites a budget's editable fields.
func (t *Tracker) Update(ctx context.Context, userID string, budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget is required", common.ErrValidation)
	}
	if budget.Amount <= 0 {
		return fmt.Errorf("%w: budget amount must be positive, got %v", common.ErrValidation, budget.Amount)
	}
	budget.UserID = userID
	return t.storage.UpdateBudget(ctx, budget)
}

// Delete removes a budget.
func (t *Tracker) Delete(ctx context.Context, userID, budgetID string) error {
	return t.storage.DeleteBudget(ctx, budgetID, userID)
}

// GetStatus derives the budget's status view. Nothing here is stored:
// percentage, remaining, the over-budget flag and the alert flag are computed
// from the accumulator on every call.
func (t *Tracker) GetStatus(ctx context.Context, userID, budgetID string) (*model.BudgetStatus, error) {
	budget, err := t.storage.GetBudget(ctx, budgetID, userID)
	if err != nil {
		return nil, err
	}

	percentage := common.Round2(budget.Spent / budget.Amount * 100)
	endDate := budget.PeriodEnd()
	daysLeft := int(math.Ceil(endDate.Sub(t.now()).Hours() / 24))
	if daysLeft < 0 {
		daysLeft = 0
	}

	return &model.BudgetStatus{
		BudgetID:     budget.ID,
		Name:         budget.Name,
		Period:       budget.Period,
		Amount:       budget.Amount,
		Spent:        budget.Spent,
		Remaining:    budget.Amount - budget.Spent,
		Percentage:   percentage,
		IsOverBudget: budget.Spent > budget.Amount,
		ShouldAlert:  budget.AlertEnabled && percentage >= budget.AlertThreshold,
		DaysLeft:     daysLeft,
		StartDate:    budget.StartDate,
		EndDate:      endDate,
	}, nil
}

// UpdateSpent adds amount to the budget's running spent total. Spend is
// applied only when a caller invokes this explicitly; transaction creation
// does not feed budgets automatically.
func (t *Tracker) UpdateSpent(ctx context.Context, userID, budgetID string, amount float64) (*model.Budget, error) {
	if err := t.storage.AddToBudgetSpent(ctx, budgetID, userID, amount); err != nil {
		return nil, err
	}
	return t.storage.GetBudget(ctx, budgetID, userID)
}

// GetActiveBudgetsForCategory returns all active budgets scoped to that
// category; used by external reporting collaborators.
func (t *Tracker) GetActiveBudgetsForCategory(ctx context.Context, userID, categoryID string) ([]model.Budget, error) {
	return t.storage.GetActiveBudgetsForCategory(ctx, userID, categoryID)
}
