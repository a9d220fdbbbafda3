package model

import "time"

// TransactionType determines the sign of the balance delta a transaction
// applies to its account.
type TransactionType string

// Transaction type constants.
const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// RecurringFrequency is the repeat cadence of a recurring transaction.
type RecurringFrequency string

// Recurring frequency constants.
const (
	FrequencyDaily   RecurringFrequency = "daily"
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
	FrequencyYearly  RecurringFrequency = "yearly"
)

// Transaction is a single income or expense entry against an account.
// Amount is always positive; Type carries the sign semantics.
type Transaction struct {
	Date               time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	RecurringEndDate   *time.Time
	DeletedAt          *time.Time
	ID                 string
	UserID             string
	CategoryID         string
	AccountID          string
	ToAccountID        string
	Description        string
	Note               string
	RecurringParentID  string
	Tags               []string
	Type               TransactionType
	RecurringFrequency RecurringFrequency
	Amount             float64
	IsRecurring        bool
	IsDeleted          bool
}

// BalanceDelta returns the signed amount this transaction applies to its
// account balance: positive for income, negative for expense.
func (t *Transaction) BalanceDelta() float64 {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return -t.Amount
}

// TransactionPatch carries partial updates for a transaction. Nil fields are
// left untouched (merge, not replace).
type TransactionPatch struct {
	Type        *TransactionType
	Amount      *float64
	Date        *time.Time
	CategoryID  *string
	AccountID   *string
	Description *string
	Note        *string
	Tags        *[]string
}

// TransferSummary reports the outcome of a transfer between two accounts.
// Balances are projected from the pre-transfer state plus the applied delta,
// not re-read after the fact.
type TransferSummary struct {
	Date            time.Time
	FromAccountID   string
	FromAccountName string
	ToAccountID     string
	ToAccountName   string
	Description     string
	Amount          float64
	FromBalance     float64
	ToBalance       float64
}
