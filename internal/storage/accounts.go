package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
)

// CreateAccount persists a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, user_id, name, type, balance, currency, bank_name,
			account_number, notes, include_in_total, is_archived,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID,
		account.UserID,
		account.Name,
		string(account.Type),
		account.Balance,
		account.Currency,
		account.BankName,
		account.AccountNumber,
		account.Notes,
		account.IncludeInTotal,
		account.IsArchived,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", account.ID, err)
	}

	slog.Debug("created account", "id", account.ID, "type", account.Type)
	return nil
}

// GetAccount returns the account after verifying it belongs to ownerID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, accountID, ownerID string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(accountID, ownerID, "accountID"); err != nil {
		return nil, err
	}
	return s.getAccountTx(ctx, s.db, accountID, ownerID)
}

func (s *SQLiteStorage) getAccountTx(ctx context.Context, q queryable, accountID, ownerID string) (*model.Account, error) {
	account, err := scanAccount(q.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, balance, currency, bank_name,
		       account_number, notes, include_in_total, is_archived,
		       created_at, updated_at
		FROM accounts
		WHERE id = ?
	`, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account.UserID != ownerID {
		return nil, fmt.Errorf("account %s: %w", accountID, common.ErrForbidden)
	}

	return account, nil
}

// ListAccounts returns a user's accounts, newest first. Archived accounts are
// hidden unless includeArchived is set.
func (s *SQLiteStorage) ListAccounts(ctx context.Context, ownerID string, includeArchived bool) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, type, balance, currency, bank_name,
		       account_number, notes, include_in_total, is_archived,
		       created_at, updated_at
		FROM accounts
		WHERE user_id = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan account: %w", scanErr)
		}
		accounts = append(accounts, *account)
	}

	return accounts, rows.Err()
}

// UpdateAccount overwrites an account's editable fields. The stored row must
// belong to account.UserID; this is the one path where balance may be set
// directly (explicit user edit).
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	if _, err := s.getAccountTx(ctx, s.db, account.ID, account.UserID); err != nil {
		return err
	}

	account.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, balance = ?, currency = ?, bank_name = ?,
		    account_number = ?, notes = ?, include_in_total = ?,
		    is_archived = ?, updated_at = ?
		WHERE id = ?
	`,
		account.Name,
		string(account.Type),
		account.Balance,
		account.Currency,
		account.BankName,
		account.AccountNumber,
		account.Notes,
		account.IncludeInTotal,
		account.IsArchived,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.ID, err)
	}

	return nil
}

// ArchiveAccount soft-hides an account. Accounts referenced by transactions
// are archived rather than deleted.
func (s *SQLiteStorage) ArchiveAccount(ctx context.Context, accountID, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(accountID, ownerID, "accountID"); err != nil {
		return err
	}

	if _, err := s.getAccountTx(ctx, s.db, accountID, ownerID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET is_archived = 1, updated_at = ? WHERE id = ?
	`, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("failed to archive account %s: %w", accountID, err)
	}

	slog.Info("archived account", "id", accountID)
	return nil
}

// GetAccountSummary aggregates visible balances: the total covers accounts
// flagged include_in_total, the by-type breakdown covers all unarchived ones.
func (s *SQLiteStorage) GetAccountSummary(ctx context.Context, ownerID string) (*model.AccountSummary, error) {
	accounts, err := s.ListAccounts(ctx, ownerID, false)
	if err != nil {
		return nil, err
	}

	summary := &model.AccountSummary{
		ByType:   make(map[model.AccountType]float64),
		Accounts: accounts,
	}
	for _, account := range accounts {
		if account.IncludeInTotal {
			summary.TotalBalance += account.Balance
		}
		summary.ByType[account.Type] += account.Balance
	}

	return summary, nil
}

// ApplyBalanceDelta adds delta (signed) to the account's balance as a single
// atomic increment. All balance mutators route through here.
func (s *SQLiteStorage) ApplyBalanceDelta(ctx context.Context, accountID, ownerID string, delta float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(accountID, ownerID, "accountID"); err != nil {
		return err
	}
	return s.applyBalanceDeltaTx(ctx, s.db, accountID, ownerID, delta)
}

func (s *SQLiteStorage) applyBalanceDeltaTx(ctx context.Context, q queryable, accountID, ownerID string, delta float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, delta, time.Now(), accountID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta to account %s: %w", accountID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing account from one owned by someone else.
		var exists bool
		err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, accountID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check account existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("account %s: %w", accountID, common.ErrNotFound)
		}
		return fmt.Errorf("account %s: %w", accountID, common.ErrForbidden)
	}

	slog.Debug("applied balance delta", "account", accountID, "delta", delta)
	return nil
}

// GetBalance returns the account's current balance with the usual ownership check.
func (s *SQLiteStorage) GetBalance(ctx context.Context, accountID, ownerID string) (float64, error) {
	account, err := s.GetAccount(ctx, accountID, ownerID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var account model.Account
	var accountType string
	var bankName, accountNumber, notes sql.NullString

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&accountType,
		&account.Balance,
		&account.Currency,
		&bankName,
		&accountNumber,
		&notes,
		&account.IncludeInTotal,
		&account.IsArchived,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Type = model.AccountType(accountType)
	account.BankName = bankName.String
	account.AccountNumber = accountNumber.String
	account.Notes = notes.String

	return &account, nil
}
