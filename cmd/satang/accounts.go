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

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, edit and archive the accounts that hold your balances.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(editAccountCmd())
	cmd.AddCommand(archiveAccountCmd())
	cmd.AddCommand(accountSummaryCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	var includeArchived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
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

			accounts, err := store.ListAccounts(ctx, userID, includeArchived)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Println(cli.StyleInfo("No accounts found. Use 'satang accounts add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tCURRENCY")
			for _, account := range accounts {
				name := account.Name
				if account.IsArchived {
					name = cli.SubtleStyle.Render(name + " (archived)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
					account.ID, name, account.Type, account.Balance, account.Currency)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&includeArchived, "all", false, "Include archived accounts")

	return cmd
}

func addAccountCmd() *cobra.Command {
	var (
		accountType string
		currency    string
		bankName    string
		number      string
		notes       string
		balance     float64
		excluded    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			if !model.ValidAccountType(model.AccountType(accountType)) {
				return fmt.Errorf("invalid account type %q", accountType)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account := &model.Account{
				ID:             uuid.NewString(),
				UserID:         userID,
				Name:           args[0],
				Type:           model.AccountType(accountType),
				Currency:       currency,
				BankName:       bankName,
				AccountNumber:  number,
				Notes:          notes,
				Balance:        balance,
				IncludeInTotal: !excluded,
			}
			if err := store.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created account %q (%s)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "bank", "Account type (cash, bank, credit_card, e_wallet, investment, other)")
	cmd.Flags().StringVar(&currency, "currency", "THB", "Account currency")
	cmd.Flags().StringVar(&bankName, "bank", "", "Bank name")
	cmd.Flags().StringVar(&number, "number", "", "Account number")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().Float64Var(&balance, "balance", 0, "Starting balance")
	cmd.Flags().BoolVar(&excluded, "exclude-from-total", false, "Exclude this account from summary totals")

	return cmd
}

func editAccountCmd() *cobra.Command {
	var (
		name     string
		bankName string
		notes    string
		balance  float64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an account",
		Long:  `Update an account's details. Setting --balance overwrites the balance directly.`,
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

			account, err := store.GetAccount(ctx, args[0], userID)
			if err != nil {
				return fmt.Errorf("failed to load account: %w", err)
			}

			if name != "" {
				account.Name = name
			}
			if bankName != "" {
				account.BankName = bankName
			}
			if notes != "" {
				account.Notes = notes
			}
			if cmd.Flags().Changed("balance") {
				account.Balance = balance
			}

			if err := store.UpdateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated account %q", account.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New account name")
	cmd.Flags().StringVar(&bankName, "bank", "", "New bank name")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().Float64Var(&balance, "balance", 0, "Overwrite the balance")

	return cmd
}

func archiveAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive an account",
		Long:  `Hide an account from listings and summaries. Its history is kept.`,
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

			if err := store.ArchiveAccount(ctx, args[0], userID); err != nil {
				return fmt.Errorf("failed to archive account: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Account archived"))
			return nil
		},
	}
}

func accountSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show balances by account type",
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

			summary, err := store.GetAccountSummary(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tBALANCE")
			for accountType, total := range summary.ByType {
				fmt.Fprintf(w, "%s\t%.2f\n", accountType, total)
			}
			w.Flush()

			fmt.Println()
			fmt.Println(cli.BoldStyle.Render(fmt.Sprintf("Total: %.2f", summary.TotalBalance)))
			return nil
		},
	}
}
