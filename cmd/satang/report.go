package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		year  int
		month int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly income and spending report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month %d", month)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			reporter, err := report.NewReporter(store)
			if err != nil {
				return err
			}

			summary, err := reporter.Monthly(ctx, userID, year, time.Month(month))
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}

			title := fmt.Sprintf("%s %d", time.Month(month), year)
			content := fmt.Sprintf("Income:  %s\nExpense: %s\nNet:     %s\nEntries: %d",
				cli.StyleSuccess(fmt.Sprintf("%.2f", summary.Income)),
				cli.StyleError(fmt.Sprintf("%.2f", summary.Expense)),
				cli.FormatMoney(summary.Net, ""),
				summary.Transactions)
			fmt.Println(cli.RenderBox(title, content))

			if len(summary.ByCategory) > 0 {
				fmt.Println(cli.BoldStyle.Render("By category"))
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tTYPE\tTOTAL\tCOUNT")
				for _, ct := range summary.ByCategory {
					categoryID := ct.CategoryID
					if categoryID == "" {
						categoryID = cli.SubtleStyle.Render("(uncategorized)")
					}
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", categoryID, ct.Type, ct.Total, ct.Count)
				}
				w.Flush()
				fmt.Println()
			}

			if len(summary.ByAccount) > 0 {
				fmt.Println(cli.BoldStyle.Render("By account"))
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tINCOME\tEXPENSE\tCOUNT")
				for _, at := range summary.ByAccount {
					fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%d\n", at.AccountID, at.Income, at.Expense, at.Count)
				}
				w.Flush()
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Report year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "Report month 1-12 (default: current)")

	return cmd
}
