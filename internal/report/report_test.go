package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/testutil"
)

func newTestReporter(t *testing.T) (*Reporter, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	reporter, err := NewReporter(db.Storage)
	require.NoError(t, err)
	return reporter, db
}

func TestReporter_Monthly(t *testing.T) {
	reporter, db := newTestReporter(t)
	ctx := context.Background()

	checking := db.SeedAccount(testutil.TestUserID, "Checking", 0)
	savings := db.SeedAccount(testutil.TestUserID, "Savings", 0)

	march := func(day int) time.Time {
		return time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	}

	db.SeedTransaction(testutil.TestUserID, checking.ID, model.TransactionTypeIncome, 30000, march(1))
	db.SeedTransaction(testutil.TestUserID, checking.ID, model.TransactionTypeExpense, 1200.50, march(5))
	db.SeedTransaction(testutil.TestUserID, checking.ID, model.TransactionTypeExpense, 800.25, march(12))
	db.SeedTransaction(testutil.TestUserID, savings.ID, model.TransactionTypeIncome, 500, march(20))

	// Outside the month and outside the user; both must stay invisible.
	db.SeedTransaction(testutil.TestUserID, checking.ID, model.TransactionTypeExpense, 9999, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	db.SeedTransaction(testutil.TestUserID, checking.ID, model.TransactionTypeExpense, 9999, time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC))
	otherAccount := db.SeedAccount(testutil.OtherUserID, "Theirs", 0)
	db.SeedTransaction(testutil.OtherUserID, otherAccount.ID, model.TransactionTypeExpense, 777, march(10))

	summary, err := reporter.Monthly(ctx, testutil.TestUserID, 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Transactions)
	assert.Equal(t, 30500.0, summary.Income)
	assert.Equal(t, 2000.75, summary.Expense)
	assert.Equal(t, 28499.25, summary.Net)

	require.Len(t, summary.ByAccount, 2)
	totals := map[string]AccountTotal{}
	for _, at := range summary.ByAccount {
		totals[at.AccountID] = at
	}
	assert.Equal(t, 30000.0, totals[checking.ID].Income)
	assert.Equal(t, 2000.75, totals[checking.ID].Expense)
	assert.Equal(t, 3, totals[checking.ID].Count)
	assert.Equal(t, 500.0, totals[savings.ID].Income)
	assert.Equal(t, 0.0, totals[savings.ID].Expense)
}

func TestReporter_Monthly_CategoryGrouping(t *testing.T) {
	reporter, db := newTestReporter(t)
	ctx := context.Background()

	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)
	food := db.SeedCategory(testutil.TestUserID, "Food", model.CategoryTypeExpense)
	rent := db.SeedCategory(testutil.TestUserID, "Rent", model.CategoryTypeExpense)

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seed := func(categoryID string, amount float64) {
		txn := db.SeedTransaction(testutil.TestUserID, account.ID, model.TransactionTypeExpense, amount, march)
		if categoryID != "" {
			txn.CategoryID = categoryID
			require.NoError(t, db.Storage.UpdateTransaction(context.Background(), txn))
		}
	}

	seed(food.ID, 150)
	seed(food.ID, 250)
	seed(rent.ID, 8000)
	seed("", 42) // uncategorized

	summary, err := reporter.Monthly(ctx, testutil.TestUserID, 2026, time.March)
	require.NoError(t, err)

	require.Len(t, summary.ByCategory, 3)
	// Sorted by total, largest first.
	assert.Equal(t, rent.ID, summary.ByCategory[0].CategoryID)
	assert.Equal(t, 8000.0, summary.ByCategory[0].Total)
	assert.Equal(t, food.ID, summary.ByCategory[1].CategoryID)
	assert.Equal(t, 400.0, summary.ByCategory[1].Total)
	assert.Equal(t, 2, summary.ByCategory[1].Count)
	assert.Equal(t, "", summary.ByCategory[2].CategoryID)
	assert.Equal(t, 42.0, summary.ByCategory[2].Total)
}

func TestReporter_Monthly_SplitsCategoryByType(t *testing.T) {
	reporter, db := newTestReporter(t)
	ctx := context.Background()

	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)
	side := db.SeedCategory(testutil.TestUserID, "Side business", model.CategoryTypeIncome)

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, txnType := range []model.TransactionType{model.TransactionTypeIncome, model.TransactionTypeExpense} {
		txn := db.SeedTransaction(testutil.TestUserID, account.ID, txnType, 100, march)
		txn.CategoryID = side.ID
		require.NoError(t, db.Storage.UpdateTransaction(ctx, txn))
	}

	summary, err := reporter.Monthly(ctx, testutil.TestUserID, 2026, time.March)
	require.NoError(t, err)

	// Same category id but opposite directions stay separate rows.
	require.Len(t, summary.ByCategory, 2)
	assert.NotEqual(t, summary.ByCategory[0].Type, summary.ByCategory[1].Type)
	for _, ct := range summary.ByCategory {
		assert.Equal(t, side.ID, ct.CategoryID)
		assert.Equal(t, 100.0, ct.Total)
	}
}

func TestReporter_Monthly_Paginates(t *testing.T) {
	reporter, db := newTestReporter(t)
	ctx := context.Background()

	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < pageSize+25; i++ {
		db.SeedTransaction(testutil.TestUserID, account.ID, model.TransactionTypeExpense, 1, march.Add(time.Duration(i)*time.Minute))
	}

	summary, err := reporter.Monthly(ctx, testutil.TestUserID, 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, pageSize+25, summary.Transactions)
	assert.Equal(t, float64(pageSize+25), summary.Expense)
}

func TestReporter_Monthly_EmptyMonth(t *testing.T) {
	reporter, _ := newTestReporter(t)
	ctx := context.Background()

	summary, err := reporter.Monthly(ctx, testutil.TestUserID, 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Transactions)
	assert.Equal(t, 0.0, summary.Income)
	assert.Equal(t, 0.0, summary.Expense)
	assert.Empty(t, summary.ByCategory)
	assert.Empty(t, summary.ByAccount)
}

func TestReporter_AccountSummary(t *testing.T) {
	reporter, db := newTestReporter(t)
	ctx := context.Background()

	db.SeedAccount(testutil.TestUserID, "Checking", 1500)
	db.SeedAccount(testutil.TestUserID, "Savings", 3500)

	summary, err := reporter.AccountSummary(ctx, testutil.TestUserID)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, summary.TotalBalance)
	assert.Equal(t, 5000.0, summary.ByType[model.AccountTypeBank])
}
