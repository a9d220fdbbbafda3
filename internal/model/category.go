package model

import "time"

// CategoryType indicates whether a category groups income or expenses.
type CategoryType string

// Category type constants.
const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// ValidCategoryType reports whether t is a known category type.
func ValidCategoryType(t CategoryType) bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category labels transactions. Categories form a two-level tree: a category
// either has no parent or its parent is itself parentless. System categories
// cannot be edited or deleted.
type Category struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Name      string
	ParentID  string
	Color     string
	Icon      string
	Type      CategoryType
	Order     int
	IsSystem  bool
	IsActive  bool
}

// CategoryTree is a category with its direct sub-categories attached.
type CategoryTree struct {
	Category
	SubCategories []Category
}
