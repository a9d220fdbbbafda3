package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/satangapp/satang/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func seedTestAccount(t *testing.T, store *SQLiteStorage, id, userID string, balance float64) *model.Account {
	t.Helper()
	account := &model.Account{
		ID:             id,
		UserID:         userID,
		Name:           "Account " + id,
		Type:           model.AccountTypeBank,
		Currency:       "THB",
		Balance:        balance,
		IncludeInTotal: true,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("Failed to seed account %s: %v", id, err)
	}
	return account
}

func seedTestCategory(t *testing.T, store *SQLiteStorage, id, userID string, categoryType model.CategoryType) *model.Category {
	t.Helper()
	category := &model.Category{
		ID:       id,
		UserID:   userID,
		Name:     "Category " + id,
		Type:     categoryType,
		IsActive: true,
	}
	if err := store.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("Failed to seed category %s: %v", id, err)
	}
	return category
}

func seedTestTransaction(t *testing.T, store *SQLiteStorage, id, userID, accountID string, txnType model.TransactionType, amount float64, date time.Time) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		ID:        id,
		UserID:    userID,
		AccountID: accountID,
		Type:      txnType,
		Amount:    amount,
		Date:      date,
	}
	if err := store.SaveTransaction(context.Background(), txn); err != nil {
		t.Fatalf("Failed to seed transaction %s: %v", id, err)
	}
	return txn
}
