// Package engine implements the transaction engine: it creates, updates and
// deletes transactions and keeps account balances consistent with them.
// Every balance mutation routes through the storage layer's delta-apply, and
// each multi-write sequence (persist + delta) runs inside one storage
// transaction so a failure on either side leaves no partial state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

// Engine orchestrates transaction mutations against the ledger.
type Engine struct {
	storage service.Storage
}

// New creates a transaction engine backed by the given storage.
func New(storage service.Storage) (*Engine, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	return &Engine{storage: storage}, nil
}

// CreateParams carries the fields for a new income or expense transaction.
type CreateParams struct {
	Date               time.Time
	RecurringEndDate   *time.Time
	Type               model.TransactionType
	CategoryID         string
	AccountID          string
	Description        string
	Note               string
	RecurringFrequency model.RecurringFrequency
	Tags               []string
	Amount             float64
	IsRecurring        bool
}

// Create persists a new transaction and applies its balance delta to the
// account. Transfers are not produced by this path; use Transfer.
func (e *Engine) Create(ctx context.Context, userID string, params CreateParams) (*model.Transaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if params.Type != model.TransactionTypeIncome && params.Type != model.TransactionTypeExpense {
		return nil, fmt.Errorf("%w: transaction type must be income or expense, got %q", common.ErrValidation, params.Type)
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", common.ErrValidation, params.Amount)
	}
	if params.AccountID == "" {
		return nil, fmt.Errorf("%w: account reference is required", common.ErrValidation)
	}
	if params.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", common.ErrValidation)
	}

	// Referential integrity: the referenced category must belong to the
	// acting user (or be system-owned).
	if params.CategoryID != "" {
		if _, err := e.storage.GetCategory(ctx, params.CategoryID, userID); err != nil {
			return nil, err
		}
	}

	txn := &model.Transaction{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               params.Type,
		Amount:             params.Amount,
		Date:               params.Date,
		CategoryID:         params.CategoryID,
		AccountID:          params.AccountID,
		Description:        params.Description,
		Note:               params.Note,
		Tags:               params.Tags,
		IsRecurring:        params.IsRecurring,
		RecurringFrequency: params.RecurringFrequency,
		RecurringEndDate:   params.RecurringEndDate,
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Account ownership is verified inside the same transaction that will
	// mutate its balance.
	if _, err := tx.GetAccount(ctx, params.AccountID, userID); err != nil {
		return nil, err
	}
	if err := tx.SaveTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := tx.ApplyBalanceDelta(ctx, params.AccountID, userID, txn.BalanceDelta()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction create: %w", err)
	}

	slog.Info("created transaction",
		"id", txn.ID,
		"type", txn.Type,
		"amount", txn.Amount,
		"account", txn.AccountID)
	return txn, nil
}

// Update merges the patch into an existing transaction. When amount or type
// changed, the old delta is reversed and the new one applied as two separate
// delta calls; order matters for any future concurrency control.
func (e *Engine) Update(ctx context.Context, userID, transactionID string, patch model.TransactionPatch) (*model.Transaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	txn, err := e.storage.GetTransaction(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}

	oldDelta := txn.BalanceDelta()
	deltaChanged := false

	if patch.Type != nil {
		if *patch.Type != model.TransactionTypeIncome && *patch.Type != model.TransactionTypeExpense {
			return nil, fmt.Errorf("%w: transaction type must be income or expense, got %q", common.ErrValidation, *patch.Type)
		}
		txn.Type = *patch.Type
		deltaChanged = true
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive, got %v", common.ErrValidation, *patch.Amount)
		}
		txn.Amount = *patch.Amount
		deltaChanged = true
	}
	if patch.Date != nil {
		txn.Date = *patch.Date
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID != "" {
			if _, err := e.storage.GetCategory(ctx, *patch.CategoryID, userID); err != nil {
				return nil, err
			}
		}
		txn.CategoryID = *patch.CategoryID
	}
	if patch.AccountID != nil {
		if *patch.AccountID == "" {
			return nil, fmt.Errorf("%w: account reference is required", common.ErrValidation)
		}
		txn.AccountID = *patch.AccountID
	}
	if patch.Description != nil {
		txn.Description = *patch.Description
	}
	if patch.Note != nil {
		txn.Note = *patch.Note
	}
	if patch.Tags != nil {
		txn.Tags = *patch.Tags
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpdateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if deltaChanged {
		// Reverse, then reapply. Two-step rather than a combined difference
		// keeps the sign flip straightforward when the type itself changes.
		if err := tx.ApplyBalanceDelta(ctx, txn.AccountID, userID, -oldDelta); err != nil {
			return nil, err
		}
		if err := tx.ApplyBalanceDelta(ctx, txn.AccountID, userID, txn.BalanceDelta()); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction update: %w", err)
	}

	slog.Info("updated transaction", "id", txn.ID, "delta_changed", deltaChanged)
	return txn, nil
}

// Delete reverses the transaction's balance delta and removes the record.
// Reversal comes first; both writes share one storage transaction.
func (e *Engine) Delete(ctx context.Context, userID, transactionID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	txn, err := e.storage.GetTransaction(ctx, transactionID, userID)
	if err != nil {
		return err
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.ApplyBalanceDelta(ctx, txn.AccountID, userID, -txn.BalanceDelta()); err != nil {
		return err
	}
	if err := tx.DeleteTransaction(ctx, transactionID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction delete: %w", err)
	}

	slog.Info("deleted transaction", "id", transactionID)
	return nil
}

// BulkDelete deletes ids sequentially. The first failure halts the run and
// propagates; earlier deletions stand.
func (e *Engine) BulkDelete(ctx context.Context, userID string, ids []string) error {
	for _, id := range ids {
		if err := e.Delete(ctx, userID, id); err != nil {
			return fmt.Errorf("bulk delete stopped at %s: %w", id, err)
		}
	}
	return nil
}

// TransferParams carries the fields for a balance transfer between two
// accounts owned by the same user.
type TransferParams struct {
	Date          time.Time
	FromAccountID string
	ToAccountID   string
	Description   string
	Amount        float64
}

// Transfer moves amount between two accounts. No transaction record is
// created; the only effects are the two balance deltas, applied within one
// storage transaction. Validation failures leave both balances untouched.
func (e *Engine) Transfer(ctx context.Context, userID string, params TransferParams) (*model.TransferSummary, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %v", common.ErrValidation, params.Amount)
	}
	if params.FromAccountID == "" || params.ToAccountID == "" {
		return nil, fmt.Errorf("%w: both account references are required", common.ErrValidation)
	}
	if params.FromAccountID == params.ToAccountID {
		return nil, fmt.Errorf("%w: cannot transfer within the same account", common.ErrInvalidOperation)
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	from, err := tx.GetAccount(ctx, params.FromAccountID, userID)
	if err != nil {
		return nil, err
	}
	to, err := tx.GetAccount(ctx, params.ToAccountID, userID)
	if err != nil {
		return nil, err
	}

	if from.Balance < params.Amount {
		return nil, fmt.Errorf("%w: account %s has %v, requested %v",
			common.ErrInsufficientFunds, from.ID, from.Balance, params.Amount)
	}

	if err := tx.ApplyBalanceDelta(ctx, from.ID, userID, -params.Amount); err != nil {
		return nil, err
	}
	if err := tx.ApplyBalanceDelta(ctx, to.ID, userID, params.Amount); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	slog.Info("transferred between accounts",
		"from", from.ID,
		"to", to.ID,
		"amount", params.Amount)

	// Balances are projected from the pre-fetched state plus the applied
	// delta, not re-read.
	return &model.TransferSummary{
		FromAccountID:   from.ID,
		FromAccountName: from.Name,
		ToAccountID:     to.ID,
		ToAccountName:   to.Name,
		Amount:          params.Amount,
		Date:            params.Date,
		Description:     params.Description,
		FromBalance:     from.Balance - params.Amount,
		ToBalance:       to.Balance + params.Amount,
	}, nil
}

// Get returns a single transaction after the ownership check.
func (e *Engine) Get(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return e.storage.GetTransaction(ctx, transactionID, userID)
}

// List returns one page of the user's transactions matching the filter.
func (e *Engine) List(ctx context.Context, userID string, filter service.TransactionFilter) (*service.TransactionPage, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return e.storage.ListTransactions(ctx, userID, filter)
}

func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user identity is required", common.ErrValidation)
	}
	return nil
}
