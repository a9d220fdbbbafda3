// Package model defines the core domain models used throughout the application.
package model

import "time"

// AccountType identifies the kind of account a balance lives in.
type AccountType string

// Account type constants.
const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeEWallet    AccountType = "e_wallet"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCreditCard,
		AccountTypeEWallet, AccountTypeInvestment, AccountTypeOther:
		return true
	}
	return false
}

// Account holds a user's running balance. The balance is mutated only through
// the storage layer's atomic delta-apply; direct overwrites happen only on
// explicit user edits.
type Account struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	UserID         string
	Name           string
	Currency       string
	BankName       string
	AccountNumber  string
	Notes          string
	Type           AccountType
	Balance        float64
	IncludeInTotal bool
	IsArchived     bool
}

// AccountSummary aggregates balances across a user's visible accounts.
type AccountSummary struct {
	ByType       map[AccountType]float64
	TotalBalance float64
	Accounts     []Account
}
