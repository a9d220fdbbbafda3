package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List, add, edit and delete the categories that label transactions.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(categoryTreeCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(editCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.ListCategories(ctx, userID, model.CategoryType(categoryType))
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.StyleInfo("No categories found. Use 'satang categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tTYPE\tPARENT")
			for _, category := range categories {
				name := category.Name
				if category.IsSystem {
					name = name + " " + cli.SubtleStyle.Render("(system)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", category.ID, name, category.Type, category.ParentID)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "", "Filter by type (income, expense)")

	return cmd
}

func categoryTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show categories as a tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tree, err := store.ListCategoryTree(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to build category tree: %w", err)
			}

			for _, node := range tree {
				fmt.Printf("%s %s\n", cli.BoldStyle.Render(node.Name), cli.SubtleStyle.Render(string(node.Type)))
				for _, sub := range node.SubCategories {
					fmt.Printf("  └─ %s\n", sub.Name)
				}
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		parentID     string
		color        string
		icon         string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			if !model.ValidCategoryType(model.CategoryType(categoryType)) {
				return fmt.Errorf("invalid category type %q", categoryType)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category := &model.Category{
				ID:       uuid.NewString(),
				UserID:   userID,
				Name:     args[0],
				Type:     model.CategoryType(categoryType),
				ParentID: parentID,
				Color:    color,
				Icon:     icon,
				IsActive: true,
			}
			if err := store.CreateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "expense", "Category type (income, expense)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent category id")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().StringVar(&icon, "icon", "", "Display icon")

	return cmd
}

func editCategoryCmd() *cobra.Command {
	var (
		name  string
		color string
		icon  string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := store.GetCategory(ctx, args[0], userID)
			if err != nil {
				return fmt.Errorf("failed to load category: %w", err)
			}

			if name != "" {
				category.Name = name
			}
			if color != "" {
				category.Color = color
			}
			if icon != "" {
				category.Icon = icon
			}

			if err := store.UpdateCategory(ctx, category); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New category name")
	cmd.Flags().StringVar(&color, "color", "", "New display color")
	cmd.Flags().StringVar(&icon, "icon", "", "New display icon")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Fails for system categories and categories with sub-categories.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteCategory(ctx, args[0], userID); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Category deleted"))
			return nil
		},
	}
}
