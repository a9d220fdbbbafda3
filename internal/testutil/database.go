// Package testutil provides test utilities for exercising storage-backed
// services against a real in-memory database.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
	"github.com/satangapp/satang/internal/storage"
)

// TestUserID is the default acting user in tests.
const TestUserID = "user-test"

// OtherUserID is a second user for ownership checks.
const OtherUserID = "user-other"

// TestDB wraps an in-memory database with helpers for seeding fixtures.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database. Cleanup is registered
// automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{Storage: store, t: t}
}

// SeedAccount creates an account for userID with the given starting balance.
func (db *TestDB) SeedAccount(userID, name string, balance float64) *model.Account {
	db.t.Helper()

	account := &model.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           name,
		Type:           model.AccountTypeBank,
		Currency:       "THB",
		Balance:        balance,
		IncludeInTotal: true,
	}
	if err := db.Storage.CreateAccount(context.Background(), account); err != nil {
		db.t.Fatalf("failed to seed account %q: %v", name, err)
	}
	return account
}

// SeedCategory creates a category for userID.
func (db *TestDB) SeedCategory(userID, name string, categoryType model.CategoryType) *model.Category {
	db.t.Helper()

	category := &model.Category{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Storage.CreateCategory(context.Background(), category); err != nil {
		db.t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return category
}

// SeedTransaction persists a transaction row directly, without touching the
// account balance. Use the engine when balance accounting matters.
func (db *TestDB) SeedTransaction(userID, accountID string, txnType model.TransactionType, amount float64, date time.Time) *model.Transaction {
	db.t.Helper()

	txn := &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   accountID,
		Type:        txnType,
		Amount:      amount,
		Date:        date,
		Description: fmt.Sprintf("seeded %s", txnType),
	}
	if err := db.Storage.SaveTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// WithTransaction executes fn inside a database transaction that is rolled
// back after fn returns.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
