package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/goal"
	"github.com/satangapp/satang/internal/model"
)

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
		Long:  `Track progress toward savings targets. Goals complete automatically when the target is reached.`,
	}

	cmd.AddCommand(addGoalCmd())
	cmd.AddCommand(listGoalsCmd())
	cmd.AddCommand(goalProgressCmd())
	cmd.AddCommand(completeGoalCmd())
	cmd.AddCommand(deleteGoalCmd())

	return cmd
}

func addGoalCmd() *cobra.Command {
	var (
		targetStr   string
		description string
		currency    string
		accountID   string
		target      float64
		initial     float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			targetDate, err := parseDateFlag(targetStr)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tracker, err := goal.NewTracker(store)
			if err != nil {
				return err
			}

			created, err := tracker.Create(ctx, userID, goal.CreateParams{
				Name:            args[0],
				Description:     description,
				TargetAmount:    target,
				CurrentAmount:   initial,
				Currency:        currency,
				TargetDate:      targetDate,
				LinkedAccountID: accountID,
			})
			if err != nil {
				return fmt.Errorf("failed to create goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created goal %q (%s)", created.Name, created.ID)))
			fmt.Printf("  Monthly required: %.0f\n", created.MonthlyRequired)
			return nil
		},
	}

	cmd.Flags().Float64Var(&target, "target", 0, "Target amount (required)")
	cmd.Flags().Float64Var(&initial, "initial", 0, "Starting saved amount")
	cmd.Flags().StringVar(&targetStr, "by", "", "Target date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&currency, "currency", "THB", "Currency")
	cmd.Flags().StringVar(&accountID, "account", "", "Linked account id")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

func listGoalsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
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

			tracker, err := goal.NewTracker(store)
			if err != nil {
				return err
			}

			goals, err := tracker.List(ctx, userID, model.GoalStatus(status))
			if err != nil {
				return fmt.Errorf("failed to list goals: %w", err)
			}

			if len(goals) == 0 {
				fmt.Println(cli.StyleInfo("No goals found. Use 'satang goals add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tSAVED\tTARGET\tPROGRESS\tSTATUS")
			for _, g := range goals {
				statusText := string(g.Status)
				if g.IsOverdue {
					statusText = cli.StyleWarning(statusText + " (overdue)")
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f%%\t%s\n",
					g.ID, g.Name, g.CurrentAmount, g.TargetAmount, g.Progress, statusText)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (active, completed, paused, cancelled)")

	return cmd
}

func goalProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id> <amount>",
		Short: "Add savings to a goal",
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

			tracker, err := goal.NewTracker(store)
			if err != nil {
				return err
			}

			updated, err := tracker.UpdateProgress(ctx, userID, args[0], amount)
			if err != nil {
				return fmt.Errorf("failed to update goal: %w", err)
			}

			if updated.Status == model.GoalStatusCompleted {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Goal %q completed! 🎯", updated.Name)))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Goal %q at %.2f%% (%.2f remaining)",
				updated.Name, updated.Progress, updated.Remaining)))
			return nil
		},
	}
}

func completeGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a goal completed",
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

			tracker, err := goal.NewTracker(store)
			if err != nil {
				return err
			}

			updated, err := tracker.Complete(ctx, userID, args[0])
			if err != nil {
				return fmt.Errorf("failed to complete goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Goal %q completed", updated.Name)))
			return nil
		},
	}
}

func deleteGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
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

			tracker, err := goal.NewTracker(store)
			if err != nil {
				return err
			}

			if err := tracker.Delete(ctx, userID, args[0]); err != nil {
				return fmt.Errorf("failed to delete goal: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Goal deleted"))
			return nil
		},
	}
}
