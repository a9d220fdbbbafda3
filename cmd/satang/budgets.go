package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/budget"
	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage budgets",
		Long:  `Set spending caps per period and track how much of each cap is used.`,
	}

	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(budgetStatusCmd())
	cmd.AddCommand(budgetSpendCmd())
	cmd.AddCommand(deleteBudgetCmd())

	return cmd
}

func addBudgetCmd() *cobra.Command {
	var (
		period     string
		categoryID string
		startStr   string
		endStr     string
		notes      string
		amount     float64
		threshold  float64
		noAlert    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			start, err := parseDateFlag(startStr)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tracker, err := budget.NewTracker(store)
			if err != nil {
				return err
			}

			params := budget.CreateParams{
				Name:       args[0],
				Amount:     amount,
				Period:     model.BudgetPeriod(period),
				StartDate:  start,
				CategoryID: categoryID,
				Notes:      notes,
			}
			if cmd.Flags().Changed("threshold") {
				params.AlertThreshold = &threshold
			}
			if noAlert {
				enabled := false
				params.AlertEnabled = &enabled
			}
			if end, err := parseDateFlag(endStr); err != nil {
				return err
			} else if !end.IsZero() {
				params.EndDate = &end
			}

			created, err := tracker.Create(ctx, userID, params)
			if err != nil {
				return fmt.Errorf("failed to create budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created budget %q (%s)", created.Name, created.ID)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Budget cap (required)")
	cmd.Flags().StringVar(&period, "period", "monthly", "Budget period (daily, weekly, monthly, yearly)")
	cmd.Flags().StringVar(&categoryID, "category", "", "Scope the budget to one category")
	cmd.Flags().StringVar(&startStr, "start", "", "Start date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&endStr, "end", "", "Explicit end date (default: start + one period)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().Float64Var(&threshold, "threshold", 80, "Alert threshold percentage")
	cmd.Flags().BoolVar(&noAlert, "no-alert", false, "Disable alerts for this budget")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	var (
		period     string
		categoryID string
		includeAll bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
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

			tracker, err := budget.NewTracker(store)
			if err != nil {
				return err
			}

			filter := service.BudgetFilter{
				Period:     model.BudgetPeriod(period),
				CategoryID: categoryID,
			}
			if !includeAll {
				active := true
				filter.IsActive = &active
			}

			budgets, err := tracker.List(ctx, userID, filter)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}

			if len(budgets) == 0 {
				fmt.Println(cli.StyleInfo("No budgets found. Use 'satang budgets add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tPERIOD\tSPENT\tAMOUNT")
			for _, b := range budgets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\n", b.ID, b.Name, b.Period, b.Spent, b.Amount)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Filter by period")
	cmd.Flags().StringVar(&categoryID, "category", "", "Filter by category id")
	cmd.Flags().BoolVar(&includeAll, "all", false, "Include inactive budgets")

	return cmd
}

func budgetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a budget's status",
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

			tracker, err := budget.NewTracker(store)
			if err != nil {
				return err
			}

			status, err := tracker.GetStatus(ctx, userID, args[0])
			if err != nil {
				return fmt.Errorf("failed to get budget status: %w", err)
			}

			usage := fmt.Sprintf("%.2f / %.2f (%.2f%%)", status.Spent, status.Amount, status.Percentage)
			if status.IsOverBudget {
				usage = cli.StyleError(usage + " over budget")
			} else if status.ShouldAlert {
				usage = cli.StyleWarning(usage)
			} else {
				usage = cli.StyleSuccess(usage)
			}

			content := fmt.Sprintf("Usage: %s\nRemaining: %.2f\nDays left: %d\nPeriod ends: %s",
				usage, status.Remaining, status.DaysLeft, status.EndDate.Format("2006-01-02"))
			fmt.Println(cli.RenderBox(status.Name, content))
			return nil
		},
	}
}

func budgetSpendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spend <id> <amount>",
		Short: "Add spending to a budget",
		Long:  `Add an amount to a budget's running spent total. A negative amount records a correction.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			var amount float64
			if _, err := fmt.Sscanf(args[1], "%f", &amount); err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tracker, err := budget.NewTracker(store)
			if err != nil {
				return err
			}

			updated, err := tracker.UpdateSpent(ctx, userID, args[0], amount)
			if err != nil {
				return fmt.Errorf("failed to update budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Budget %q now at %.2f / %.2f",
				updated.Name, updated.Spent, updated.Amount)))
			return nil
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget",
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

			tracker, err := budget.NewTracker(store)
			if err != nil {
				return err
			}

			if err := tracker.Delete(ctx, userID, args[0]); err != nil {
				return fmt.Errorf("failed to delete budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Budget deleted"))
			return nil
		},
	}
}
