// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/satangapp/satang/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero values mean "no filter". Tags use OR semantics; Search is a
// case-insensitive substring match over description and note.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Type       model.TransactionType
	CategoryID string
	AccountID  string
	Search     string
	Tags       []string
	Page       int
	Limit      int
}

// TransactionPage is one page of a filtered transaction listing.
type TransactionPage struct {
	Transactions []model.Transaction
	Total        int
	Page         int
	Limit        int
}

// BudgetFilter defines filtering options for budget queries.
type BudgetFilter struct {
	IsActive   *bool
	Period     model.BudgetPeriod
	CategoryID string
}

// Storage defines the contract for our persistence layer. Every mutating
// operation takes the acting user's id and re-verifies ownership of the
// referenced rows; callers are never trusted to have checked.
type Storage interface {
	// Account operations. ApplyBalanceDelta is the single mutation path for
	// balances: a one-statement atomic increment at the storage layer.
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, accountID, ownerID string) (*model.Account, error)
	ListAccounts(ctx context.Context, ownerID string, includeArchived bool) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	ArchiveAccount(ctx context.Context, accountID, ownerID string) error
	GetAccountSummary(ctx context.Context, ownerID string) (*model.AccountSummary, error)
	ApplyBalanceDelta(ctx context.Context, accountID, ownerID string, delta float64) error
	GetBalance(ctx context.Context, accountID, ownerID string) (float64, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, categoryID, ownerID string) (*model.Category, error)
	ListCategories(ctx context.Context, ownerID string, categoryType model.CategoryType) ([]model.Category, error)
	ListCategoryTree(ctx context.Context, ownerID string) ([]model.CategoryTree, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, categoryID, ownerID string) error

	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, transactionID, ownerID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID, ownerID string) error
	ListTransactions(ctx context.Context, ownerID string, filter TransactionFilter) (*TransactionPage, error)

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, budgetID, ownerID string) (*model.Budget, error)
	ListBudgets(ctx context.Context, ownerID string, filter BudgetFilter) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, budgetID, ownerID string) error
	AddToBudgetSpent(ctx context.Context, budgetID, ownerID string, amount float64) error
	GetActiveBudgetsForCategory(ctx context.Context, ownerID, categoryID string) ([]model.Budget, error)

	// Saving goal operations
	CreateGoal(ctx context.Context, goal *model.SavingGoal) error
	GetGoal(ctx context.Context, goalID, ownerID string) (*model.SavingGoal, error)
	ListGoals(ctx context.Context, ownerID string, status model.GoalStatus) ([]model.SavingGoal, error)
	UpdateGoal(ctx context.Context, goal *model.SavingGoal) error
	DeleteGoal(ctx context.Context, goalID, ownerID string) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction scopes the storage operations used by the engine's multi-write
// sequences (persist + delta-apply) to a single database transaction.
type Transaction interface {
	Commit() error
	Rollback() error

	GetAccount(ctx context.Context, accountID, ownerID string) (*model.Account, error)
	ApplyBalanceDelta(ctx context.Context, accountID, ownerID string, delta float64) error
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, transactionID, ownerID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID, ownerID string) error
}
