package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

// SaveTransaction persists a new transaction row.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.saveTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) saveTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	now := time.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	tagsJSON, err := marshalTags(txn.Tags)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, type, amount, date, category_id, account_id,
			to_account_id, description, note, tags,
			is_recurring, recurring_frequency, recurring_end_date, recurring_parent_id,
			is_deleted, deleted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.UserID,
		string(txn.Type),
		txn.Amount,
		txn.Date,
		nullString(txn.CategoryID),
		txn.AccountID,
		nullString(txn.ToAccountID),
		txn.Description,
		txn.Note,
		tagsJSON,
		txn.IsRecurring,
		nullString(string(txn.RecurringFrequency)),
		txn.RecurringEndDate,
		nullString(txn.RecurringParentID),
		txn.IsDeleted,
		txn.DeletedAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}

	slog.Debug("saved transaction", "id", txn.ID, "type", txn.Type, "amount", txn.Amount)
	return nil
}

// GetTransaction returns a transaction after verifying ownership.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, transactionID, ownerID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(transactionID, ownerID, "transactionID"); err != nil {
		return nil, err
	}
	return s.getTransactionTx(ctx, s.db, transactionID, ownerID)
}

func (s *SQLiteStorage) getTransactionTx(ctx context.Context, q queryable, transactionID, ownerID string) (*model.Transaction, error) {
	txn, err := scanTransaction(q.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?
	`, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if txn.UserID != ownerID {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, common.ErrForbidden)
	}

	return txn, nil
}

// UpdateTransaction overwrites a transaction row. The stored row must belong
// to txn.UserID.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.updateTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) updateTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if _, err := s.getTransactionTx(ctx, q, txn.ID, txn.UserID); err != nil {
		return err
	}

	tagsJSON, err := marshalTags(txn.Tags)
	if err != nil {
		return err
	}

	txn.UpdatedAt = time.Now()
	_, err = q.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, date = ?, category_id = ?, account_id = ?,
		    to_account_id = ?, description = ?, note = ?, tags = ?,
		    is_recurring = ?, recurring_frequency = ?, recurring_end_date = ?,
		    recurring_parent_id = ?, is_deleted = ?, deleted_at = ?, updated_at = ?
		WHERE id = ?
	`,
		string(txn.Type),
		txn.Amount,
		txn.Date,
		nullString(txn.CategoryID),
		txn.AccountID,
		nullString(txn.ToAccountID),
		txn.Description,
		txn.Note,
		tagsJSON,
		txn.IsRecurring,
		nullString(string(txn.RecurringFrequency)),
		txn.RecurringEndDate,
		nullString(txn.RecurringParentID),
		txn.IsDeleted,
		txn.DeletedAt,
		txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}

	return nil
}

// DeleteTransaction removes a transaction row after verifying ownership.
// Balance reversal is the engine's responsibility and happens before this call.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, transactionID, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(transactionID, ownerID, "transactionID"); err != nil {
		return err
	}
	return s.deleteTransactionTx(ctx, s.db, transactionID, ownerID)
}

func (s *SQLiteStorage) deleteTransactionTx(ctx context.Context, q queryable, transactionID, ownerID string) error {
	if _, err := s.getTransactionTx(ctx, q, transactionID, ownerID); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}

	slog.Debug("deleted transaction", "id", transactionID)
	return nil
}

// ListTransactions returns one page of a user's transactions matching the
// filter, sorted by date descending with creation time as the tie-break.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, ownerID string, filter service.TransactionFilter) (*service.TransactionPage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	where := `WHERE user_id = ? AND is_deleted = 0`
	args := []any{ownerID}

	if filter.Type != "" {
		where += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.AccountID != "" {
		where += ` AND account_id = ?`
		args = append(args, filter.AccountID)
	}
	if filter.StartDate != nil {
		where += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where += ` AND date <= ?`
		args = append(args, *filter.EndDate)
	}
	if len(filter.Tags) > 0 {
		// Tags are stored as a JSON array; membership is OR across the
		// provided tags.
		clauses := make([]string, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			clauses = append(clauses, `tags LIKE ?`)
			args = append(args, `%"`+tag+`"%`)
		}
		where += ` AND (` + strings.Join(clauses, " OR ") + `)`
	}
	if filter.Search != "" {
		where += ` AND (LOWER(description) LIKE ? OR LOWER(note) LIKE ?)`
		needle := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, needle, needle)
	}

	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions ` + where +
		` ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &service.TransactionPage{
		Transactions: transactions,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

const transactionColumns = `id, user_id, type, amount, date, category_id, account_id,
	to_account_id, description, note, tags,
	is_recurring, recurring_frequency, recurring_end_date, recurring_parent_id,
	is_deleted, deleted_at, created_at, updated_at`

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var txnType string
	var categoryID, toAccountID, description, note, tagsJSON sql.NullString
	var frequency, recurringParentID sql.NullString
	var recurringEndDate, deletedAt sql.NullTime

	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txnType,
		&txn.Amount,
		&txn.Date,
		&categoryID,
		&txn.AccountID,
		&toAccountID,
		&description,
		&note,
		&tagsJSON,
		&txn.IsRecurring,
		&frequency,
		&recurringEndDate,
		&recurringParentID,
		&txn.IsDeleted,
		&deletedAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txnType)
	txn.CategoryID = categoryID.String
	txn.ToAccountID = toAccountID.String
	txn.Description = description.String
	txn.Note = note.String
	txn.RecurringFrequency = model.RecurringFrequency(frequency.String)
	txn.RecurringParentID = recurringParentID.String
	if recurringEndDate.Valid {
		txn.RecurringEndDate = &recurringEndDate.Time
	}
	if deletedAt.Valid {
		txn.DeletedAt = &deletedAt.Time
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &txn.Tags); err != nil {
			// Log but don't fail on JSON parse error
			slog.Warn("Failed to parse tags JSON", "error", err, "json", tagsJSON.String)
		}
	}

	return &txn, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}
