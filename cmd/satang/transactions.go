package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/engine"
	"github.com/satangapp/satang/internal/model"
	"github.com/satangapp/satang/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Record, list, edit and delete transactions. Every entry keeps its account balance in step.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())
	cmd.AddCommand(transferCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		txType      string
		accountID   string
		categoryID  string
		description string
		note        string
		dateStr     string
		tags        string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			var amount float64
			if _, err := fmt.Sscanf(args[0], "%f", &amount); err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = time.Now()
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			txn, err := eng.Create(ctx, userID, engine.CreateParams{
				Type:        model.TransactionType(txType),
				Amount:      amount,
				AccountID:   accountID,
				CategoryID:  categoryID,
				Description: description,
				Note:        note,
				Date:        date,
				Tags:        splitTags(tags),
			})
			if err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			balance, err := store.GetBalance(ctx, txn.AccountID, userID)
			if err != nil {
				return fmt.Errorf("failed to read balance: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of %.2f (%s)", txn.Type, txn.Amount, txn.ID)))
			fmt.Printf("  New balance: %.2f\n", balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "Transaction type (income, expense)")
	cmd.Flags().StringVar(&accountID, "account", "", "Account id (required)")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category id")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func listTxCmd() *cobra.Command {
	var (
		txType     string
		accountID  string
		categoryID string
		search     string
		tags       string
		fromStr    string
		toStr      string
		page       int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
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

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			filter := service.TransactionFilter{
				Type:       model.TransactionType(txType),
				AccountID:  accountID,
				CategoryID: categoryID,
				Search:     search,
				Tags:       splitTags(tags),
				Page:       page,
				Limit:      limit,
			}
			if from, err := parseDateFlag(fromStr); err != nil {
				return err
			} else if !from.IsZero() {
				filter.StartDate = &from
			}
			if to, err := parseDateFlag(toStr); err != nil {
				return err
			} else if !to.IsZero() {
				filter.EndDate = &to
			}

			result, err := eng.List(ctx, userID, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(result.Transactions) == 0 {
				fmt.Println(cli.StyleInfo("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tID\tTYPE\tAMOUNT\tDESCRIPTION\tTAGS")
			for _, txn := range result.Transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
					txn.Date.Format("2006-01-02"), txn.ID, txn.Type, txn.Amount,
					txn.Description, strings.Join(txn.Tags, ","))
			}
			w.Flush()

			fmt.Println()
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Page %d of %d transactions", result.Page, result.Total)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "", "Filter by type (income, expense)")
	cmd.Flags().StringVar(&accountID, "account", "", "Filter by account id")
	cmd.Flags().StringVar(&categoryID, "category", "", "Filter by category id")
	cmd.Flags().StringVar(&search, "search", "", "Substring match on description and note")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags (any match)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Start date (inclusive)")
	cmd.Flags().StringVar(&toStr, "to", "", "End date (inclusive)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		txType      string
		accountID   string
		categoryID  string
		description string
		note        string
		dateStr     string
		tags        string
		amount      float64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Long:  `Update a transaction. Balance effects are re-applied: the old delta is reversed and the new one applied.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			var patch model.TransactionPatch
			if cmd.Flags().Changed("type") {
				t := model.TransactionType(txType)
				patch.Type = &t
			}
			if cmd.Flags().Changed("amount") {
				patch.Amount = &amount
			}
			if cmd.Flags().Changed("account") {
				patch.AccountID = &accountID
			}
			if cmd.Flags().Changed("category") {
				patch.CategoryID = &categoryID
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("note") {
				patch.Note = &note
			}
			if cmd.Flags().Changed("date") {
				date, err := parseDateFlag(dateStr)
				if err != nil {
					return err
				}
				patch.Date = &date
			}
			if cmd.Flags().Changed("tags") {
				parsed := splitTags(tags)
				patch.Tags = &parsed
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			txn, err := eng.Update(ctx, userID, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %s", txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "", "New type (income, expense)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "New amount")
	cmd.Flags().StringVar(&accountID, "account", "", "New account id")
	cmd.Flags().StringVar(&categoryID, "category", "", "New category id")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&note, "note", "", "New note")
	cmd.Flags().StringVar(&dateStr, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tags, "tags", "", "New comma-separated tags")

	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete transactions",
		Long:  `Delete one or more transactions, reversing each balance effect. Stops at the first failure.`,
		Args:  cobra.MinimumNArgs(1),
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

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := eng.Delete(ctx, userID, args[0]); err != nil {
					return fmt.Errorf("failed to delete transaction: %w", err)
				}
			} else if err := eng.BulkDelete(ctx, userID, args); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d transaction(s)", len(args))))
			return nil
		},
	}
}

func transferCmd() *cobra.Command {
	var (
		fromID      string
		toID        string
		description string
		dateStr     string
	)

	cmd := &cobra.Command{
		Use:   "transfer <amount>",
		Short: "Move money between accounts",
		Long:  `Move money from one account to another. Fails when the source balance is insufficient.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			var amount float64
			if _, err := fmt.Sscanf(args[0], "%f", &amount); err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = time.Now()
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			summary, err := eng.Transfer(ctx, userID, engine.TransferParams{
				FromAccountID: fromID,
				ToAccountID:   toID,
				Amount:        amount,
				Description:   description,
				Date:          date,
			})
			if err != nil {
				return fmt.Errorf("transfer failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transferred %.2f from %q to %q",
				summary.Amount, summary.FromAccountName, summary.ToAccountName)))
			fmt.Printf("  %s: %.2f\n", summary.FromAccountName, summary.FromBalance)
			fmt.Printf("  %s: %.2f\n", summary.ToAccountName, summary.ToBalance)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromID, "from", "", "Source account id (required)")
	cmd.Flags().StringVar(&toID, "to", "", "Destination account id (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
