package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
	"github.com/satangapp/satang/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	eng, err := New(db.Storage)
	require.NoError(t, err)
	return eng, db
}

func TestEngine_Create_AppliesBalanceDelta(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	income, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeIncome,
		Amount:    500,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, income.ID)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, balance)

	_, err = eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    200,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	balance, err = db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 1300.0, balance)
}

func TestEngine_Create_Validation(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)

	tests := []struct {
		wantErr error
		name    string
		params  CreateParams
	}{
		{
			name:    "transfer type rejected",
			params:  CreateParams{Type: model.TransactionTypeTransfer, Amount: 10, AccountID: account.ID, Date: time.Now()},
			wantErr: common.ErrValidation,
		},
		{
			name:    "zero amount",
			params:  CreateParams{Type: model.TransactionTypeExpense, Amount: 0, AccountID: account.ID, Date: time.Now()},
			wantErr: common.ErrValidation,
		},
		{
			name:    "negative amount",
			params:  CreateParams{Type: model.TransactionTypeExpense, Amount: -5, AccountID: account.ID, Date: time.Now()},
			wantErr: common.ErrValidation,
		},
		{
			name:    "missing account",
			params:  CreateParams{Type: model.TransactionTypeExpense, Amount: 10, Date: time.Now()},
			wantErr: common.ErrValidation,
		},
		{
			name:    "zero date",
			params:  CreateParams{Type: model.TransactionTypeExpense, Amount: 10, AccountID: account.ID},
			wantErr: common.ErrValidation,
		},
		{
			name:    "unknown account",
			params:  CreateParams{Type: model.TransactionTypeExpense, Amount: 10, AccountID: "acc-missing", Date: time.Now()},
			wantErr: common.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Create(ctx, testutil.TestUserID, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No failed create may move the balance.
	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestEngine_Create_ForeignAccount(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	other := db.SeedAccount(testutil.OtherUserID, "Theirs", 100)

	_, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    10,
		AccountID: other.ID,
		Date:      time.Now(),
	})
	assert.ErrorIs(t, err, common.ErrForbidden)

	balance, err := db.Storage.GetBalance(ctx, other.ID, testutil.OtherUserID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)
}

func TestEngine_Update_ReappliesDelta(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	txn, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    200,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	// 1000 - 200 = 800; raising the amount to 350 should land at 650.
	newAmount := 350.0
	updated, err := eng.Update(ctx, testutil.TestUserID, txn.ID, model.TransactionPatch{Amount: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, 350.0, updated.Amount)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 650.0, balance)
}

func TestEngine_Update_TypeFlip(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	txn, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    200,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	// Flipping expense to income reverses -200 and applies +200: 800 -> 1200.
	income := model.TransactionTypeIncome
	_, err = eng.Update(ctx, testutil.TestUserID, txn.ID, model.TransactionPatch{Type: &income})
	require.NoError(t, err)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, balance)
}

func TestEngine_Update_MetadataOnlyLeavesBalance(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	txn, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    200,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	description := "groceries"
	updated, err := eng.Update(ctx, testutil.TestUserID, txn.ID, model.TransactionPatch{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "groceries", updated.Description)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, balance)
}

func TestEngine_Delete_ReversesDelta(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	income, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeIncome,
		Amount:    500,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	expense, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:      model.TransactionTypeExpense,
		Amount:    200,
		AccountID: account.ID,
		Date:      time.Now(),
	})
	require.NoError(t, err)

	// 1000 + 500 - 200 = 1300; deleting the income drops back to 800.
	require.NoError(t, eng.Delete(ctx, testutil.TestUserID, income.ID))

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, balance)

	_, err = eng.Get(ctx, testutil.TestUserID, income.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Deleting the expense restores the original balance exactly.
	require.NoError(t, eng.Delete(ctx, testutil.TestUserID, expense.ID))
	balance, err = db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)
}

func TestEngine_BulkDelete_StopsAtFirstFailure(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	first, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type: model.TransactionTypeExpense, Amount: 100, AccountID: account.ID, Date: time.Now(),
	})
	require.NoError(t, err)
	second, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type: model.TransactionTypeExpense, Amount: 100, AccountID: account.ID, Date: time.Now(),
	})
	require.NoError(t, err)

	err = eng.BulkDelete(ctx, testutil.TestUserID, []string{first.ID, "txn-missing", second.ID})
	assert.ErrorIs(t, err, common.ErrNotFound)

	// first was deleted before the failure; second survives.
	_, err = eng.Get(ctx, testutil.TestUserID, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = eng.Get(ctx, testutil.TestUserID, second.ID)
	assert.NoError(t, err)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 900.0, balance)
}

func TestEngine_Transfer(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	from := db.SeedAccount(testutil.TestUserID, "Checking", 1000)
	to := db.SeedAccount(testutil.TestUserID, "Savings", 50)

	summary, err := eng.Transfer(ctx, testutil.TestUserID, TransferParams{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        300,
		Date:          time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, 700.0, summary.FromBalance)
	assert.Equal(t, 350.0, summary.ToBalance)
	assert.Equal(t, "Checking", summary.FromAccountName)
	assert.Equal(t, "Savings", summary.ToAccountName)

	fromBalance, err := db.Storage.GetBalance(ctx, from.ID, testutil.TestUserID)
	require.NoError(t, err)
	toBalance, err := db.Storage.GetBalance(ctx, to.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 700.0, fromBalance)
	assert.Equal(t, 350.0, toBalance)

	// Transfers leave no transaction record behind.
	page, err := eng.List(ctx, testutil.TestUserID, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestEngine_Transfer_Failures(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	from := db.SeedAccount(testutil.TestUserID, "Checking", 100)
	to := db.SeedAccount(testutil.TestUserID, "Savings", 50)
	foreign := db.SeedAccount(testutil.OtherUserID, "Theirs", 1000)

	tests := []struct {
		wantErr error
		name    string
		params  TransferParams
	}{
		{
			name:    "same account",
			params:  TransferParams{FromAccountID: from.ID, ToAccountID: from.ID, Amount: 10},
			wantErr: common.ErrInvalidOperation,
		},
		{
			name:    "insufficient funds",
			params:  TransferParams{FromAccountID: from.ID, ToAccountID: to.ID, Amount: 100.01},
			wantErr: common.ErrInsufficientFunds,
		},
		{
			name:    "foreign destination",
			params:  TransferParams{FromAccountID: from.ID, ToAccountID: foreign.ID, Amount: 10},
			wantErr: common.ErrForbidden,
		},
		{
			name:    "zero amount",
			params:  TransferParams{FromAccountID: from.ID, ToAccountID: to.ID, Amount: 0},
			wantErr: common.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Transfer(ctx, testutil.TestUserID, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Every failure must leave both balances untouched.
	fromBalance, err := db.Storage.GetBalance(ctx, from.ID, testutil.TestUserID)
	require.NoError(t, err)
	toBalance, err := db.Storage.GetBalance(ctx, to.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, fromBalance)
	assert.Equal(t, 50.0, toBalance)
}

func TestEngine_Transfer_ExactBalanceAllowed(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	from := db.SeedAccount(testutil.TestUserID, "Checking", 100)
	to := db.SeedAccount(testutil.TestUserID, "Savings", 0)

	summary, err := eng.Transfer(ctx, testutil.TestUserID, TransferParams{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        100,
		Date:          time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.FromBalance)
	assert.Equal(t, 100.0, summary.ToBalance)
}

func TestEngine_CategoryOwnershipChecked(t *testing.T) {
	eng, db := newTestEngine(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 100)
	foreignCat := db.SeedCategory(testutil.OtherUserID, "Their food", model.CategoryTypeExpense)

	_, err := eng.Create(ctx, testutil.TestUserID, CreateParams{
		Type:       model.TransactionTypeExpense,
		Amount:     10,
		AccountID:  account.ID,
		CategoryID: foreignCat.ID,
		Date:       time.Now(),
	})
	assert.ErrorIs(t, err, common.ErrForbidden)
}
