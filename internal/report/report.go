// Package report aggregates transactions into dashboard views. It is a pure
// read-side consumer of the storage listing primitives; nothing here writes.
package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/satangapp/satang/internal/common"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

// pageSize is how many transactions each aggregation pass pulls per query.
const pageSize = 200

// Reporter builds summaries from stored transactions and accounts.
type Reporter struct {
	storage service.Storage
}

// NewReporter creates a reporter backed by the given storage.
func NewReporter(storage service.Storage) (*Reporter, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	return &Reporter{storage: storage}, nil
}

// CategoryTotal is one category's slice of a monthly summary.
type CategoryTotal struct {
	CategoryID string
	Type       model.TransactionType
	Total      float64
	Count      int
}

// AccountTotal is one account's activity in a monthly summary.
type AccountTotal struct {
	AccountID string
	Income    float64
	Expense   float64
	Count     int
}

// MonthlySummary is the dashboard view for one calendar month.
type MonthlySummary struct {
	Start        time.Time
	End          time.Time
	ByCategory   []CategoryTotal
	ByAccount    []AccountTotal
	Income       float64
	Expense      float64
	Net          float64
	Transactions int
}

// Monthly aggregates all of the user's transactions for the given month.
// Transfers never appear in the transaction list, so income and expense
// totals are exact without special-casing.
func (r *Reporter) Monthly(ctx context.Context, userID string, year int, month time.Month) (*MonthlySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	summary := &MonthlySummary{Start: start, End: end}
	byCategory := make(map[string]*CategoryTotal)
	byAccount := make(map[string]*AccountTotal)

	page := 1
	for {
		result, err := r.storage.ListTransactions(ctx, userID, service.TransactionFilter{
			StartDate: &start,
			EndDate:   &end,
			Page:      page,
			Limit:     pageSize,
		})
		if err != nil {
			return nil, err
		}

		for i := range result.Transactions {
			txn := &result.Transactions[i]
			summary.Transactions++

			switch txn.Type {
			case model.TransactionTypeIncome:
				summary.Income += txn.Amount
			case model.TransactionTypeExpense:
				summary.Expense += txn.Amount
			}

			key := txn.CategoryID + "/" + string(txn.Type)
			ct, ok := byCategory[key]
			if !ok {
				ct = &CategoryTotal{CategoryID: txn.CategoryID, Type: txn.Type}
				byCategory[key] = ct
			}
			ct.Total += txn.Amount
			ct.Count++

			at, ok := byAccount[txn.AccountID]
			if !ok {
				at = &AccountTotal{AccountID: txn.AccountID}
				byAccount[txn.AccountID] = at
			}
			if txn.Type == model.TransactionTypeIncome {
				at.Income += txn.Amount
			} else {
				at.Expense += txn.Amount
			}
			at.Count++
		}

		if page*pageSize >= result.Total || len(result.Transactions) == 0 {
			break
		}
		page++
	}

	summary.Income = common.Round2(summary.Income)
	summary.Expense = common.Round2(summary.Expense)
	summary.Net = common.Round2(summary.Income - summary.Expense)

	for _, ct := range byCategory {
		ct.Total = common.Round2(ct.Total)
		summary.ByCategory = append(summary.ByCategory, *ct)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Total > summary.ByCategory[j].Total
	})

	for _, at := range byAccount {
		at.Income = common.Round2(at.Income)
		at.Expense = common.Round2(at.Expense)
		summary.ByAccount = append(summary.ByAccount, *at)
	}
	sort.Slice(summary.ByAccount, func(i, j int) bool {
		return summary.ByAccount[i].AccountID < summary.ByAccount[j].AccountID
	})

	return summary, nil
}

// AccountSummary returns per-type and overall balances for the user's
// accounts. Archived accounts and accounts excluded from totals are handled
// at the storage layer.
func (r *Reporter) AccountSummary(ctx context.Context, userID string) (*model.AccountSummary, error) {
	return r.storage.GetAccountSummary(ctx, userID)
}
