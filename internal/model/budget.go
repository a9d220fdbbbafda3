package model

import "time"

// BudgetPeriod is the window a budget cap applies to.
type BudgetPeriod string

// Budget period constants.
const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// ValidBudgetPeriod reports whether p is a known budget period.
func ValidBudgetPeriod(p BudgetPeriod) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget caps spending for a period, optionally scoped to one category.
// Spent is a running accumulator driven by explicit UpdateSpent calls; it is
// not recomputed from the transaction list.
type Budget struct {
	StartDate      time.Time
	CreatedAt      time.Time
	EndDate        *time.Time
	ID             string
	UserID         string
	Name           string
	CategoryID     string
	Notes          string
	Period         BudgetPeriod
	Amount         float64
	Spent          float64
	AlertThreshold float64
	AlertEnabled   bool
	IsActive       bool
}

// PeriodEnd returns the explicit end date when set, otherwise the start date
// advanced by one period (calendar month/year arithmetic for those periods).
func (b *Budget) PeriodEnd() time.Time {
	if b.EndDate != nil {
		return *b.EndDate
	}
	switch b.Period {
	case PeriodDaily:
		return b.StartDate.AddDate(0, 0, 1)
	case PeriodWeekly:
		return b.StartDate.AddDate(0, 0, 7)
	case PeriodMonthly:
		return b.StartDate.AddDate(0, 1, 0)
	case PeriodYearly:
		return b.StartDate.AddDate(1, 0, 0)
	}
	return b.StartDate
}

// BudgetStatus is the derived, never-stored view of a budget.
type BudgetStatus struct {
	StartDate    time.Time
	EndDate      time.Time
	BudgetID     string
	Name         string
	Period       BudgetPeriod
	Amount       float64
	Spent        float64
	Remaining    float64
	Percentage   float64
	DaysLeft     int
	IsOverBudget bool
	ShouldAlert  bool
}
