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

// CreateCategory persists a new category. Sub-categories may only hang off a
// parentless category (two levels max), and the parent must belong to the
// same user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.ParentID != "" {
		parent, err := s.GetCategory(ctx, category.ParentID, category.UserID)
		if err != nil {
			return err
		}
		if parent.ParentID != "" {
			return fmt.Errorf("%w: cannot nest sub-categories more than 2 levels deep", common.ErrInvalidOperation)
		}
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (
			id, user_id, name, type, parent_id, color, icon,
			sort_order, is_system, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		category.ID,
		category.UserID,
		category.Name,
		string(category.Type),
		nullString(category.ParentID),
		category.Color,
		category.Icon,
		category.Order,
		category.IsSystem,
		category.IsActive,
		category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category %s: %w", category.ID, err)
	}

	slog.Debug("created category", "id", category.ID, "name", category.Name)
	return nil
}

// GetCategory returns a category after the ownership check. System categories
// are readable by any user.
func (s *SQLiteStorage) GetCategory(ctx context.Context, categoryID, ownerID string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOwnedRef(categoryID, ownerID, "categoryID"); err != nil {
		return nil, err
	}

	category, err := scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, parent_id, color, icon,
		       sort_order, is_system, is_active, created_at
		FROM categories
		WHERE id = ?
	`, categoryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", categoryID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if category.UserID != ownerID && !category.IsSystem {
		return nil, fmt.Errorf("category %s: %w", categoryID, common.ErrForbidden)
	}

	return category, nil
}

// ListCategories returns a user's categories ordered by type then name.
// Pass an empty categoryType for all types.
func (s *SQLiteStorage) ListCategories(ctx context.Context, ownerID string, categoryType model.CategoryType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, name, type, parent_id, color, icon,
		       sort_order, is_system, is_active, created_at
		FROM categories
		WHERE user_id = ?`
	args := []any{ownerID}
	if categoryType != "" {
		query += ` AND type = ?`
		args = append(args, string(categoryType))
	}
	query += ` ORDER BY type, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan category: %w", scanErr)
		}
		categories = append(categories, *category)
	}

	return categories, rows.Err()
}

// ListCategoryTree groups a user's categories into parents with their direct
// sub-categories.
func (s *SQLiteStorage) ListCategoryTree(ctx context.Context, ownerID string) ([]model.CategoryTree, error) {
	categories, err := s.ListCategories(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}

	children := make(map[string][]model.Category)
	var roots []model.Category
	for _, category := range categories {
		if category.ParentID != "" {
			children[category.ParentID] = append(children[category.ParentID], category)
		} else {
			roots = append(roots, category)
		}
	}

	tree := make([]model.CategoryTree, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, model.CategoryTree{
			Category:      root,
			SubCategories: children[root.ID],
		})
	}

	return tree, nil
}

// UpdateCategory overwrites a category's editable fields. System categories
// cannot be mutated.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	existing, err := s.GetCategory(ctx, category.ID, category.UserID)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return fmt.Errorf("%w: system category cannot be edited", common.ErrInvalidOperation)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, type = ?, color = ?, icon = ?, sort_order = ?, is_active = ?
		WHERE id = ?
	`,
		category.Name,
		string(category.Type),
		category.Color,
		category.Icon,
		category.Order,
		category.IsActive,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %s: %w", category.ID, err)
	}

	return nil
}

// DeleteCategory removes a category. System categories and categories with
// sub-categories cannot be deleted.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, categoryID, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOwnedRef(categoryID, ownerID, "categoryID"); err != nil {
		return err
	}

	category, err := s.GetCategory(ctx, categoryID, ownerID)
	if err != nil {
		return err
	}
	if category.IsSystem {
		return fmt.Errorf("%w: system category cannot be deleted", common.ErrInvalidOperation)
	}

	var childCount int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE parent_id = ?
	`, categoryID).Scan(&childCount)
	if err != nil {
		return fmt.Errorf("failed to count sub-categories: %w", err)
	}
	if childCount > 0 {
		return fmt.Errorf("%w: category has %d sub-categories, delete them first", common.ErrInvalidOperation, childCount)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", categoryID, err)
	}

	slog.Info("deleted category", "id", categoryID, "name", category.Name)
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var category model.Category
	var categoryType string
	var parentID, color, icon sql.NullString

	err := row.Scan(
		&category.ID,
		&category.UserID,
		&category.Name,
		&categoryType,
		&parentID,
		&color,
		&icon,
		&category.Order,
		&category.IsSystem,
		&category.IsActive,
		&category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	category.Type = model.CategoryType(categoryType)
	category.ParentID = parentID.String
	category.Color = color.String
	category.Icon = icon.String

	return &category, nil
}

// nullString maps "" to NULL for optional reference columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
