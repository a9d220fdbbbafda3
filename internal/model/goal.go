package model

import "time"

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

// Goal status constants. The active→completed transition is one-way.
const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCancelled GoalStatus = "cancelled"
)

// ValidGoalStatus reports whether s is a known goal status.
func ValidGoalStatus(s GoalStatus) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusPaused, GoalStatusCancelled:
		return true
	}
	return false
}

// SavingGoal tracks progress toward a target amount by a target date.
// CurrentAmount is clamped to TargetAmount on completion.
type SavingGoal struct {
	TargetDate      time.Time
	CreatedAt       time.Time
	CompletedAt     *time.Time
	ID              string
	UserID          string
	Name            string
	Currency        string
	Description     string
	LinkedAccountID string
	Status          GoalStatus
	TargetAmount    float64
	CurrentAmount   float64
}

// GoalView is a goal annotated with derived progress figures, computed on
// every read.
type GoalView struct {
	SavingGoal
	Progress        float64
	Remaining       float64
	MonthlyRequired float64
	DaysLeft        int
	IsOverdue       bool
}
