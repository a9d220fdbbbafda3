package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/satangapp/satang/internal/cli"
	"github.com/satangapp/satang/internal/csvimport"
	"github.com/satangapp/satang/internal/engine"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a CSV file. Each row goes through the same
validation and balance accounting as a manually entered transaction; the
first failing row stops the import.

Expected columns: date, type, amount, account_id, category_id, description, note, tags`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			userID, err := currentUser()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			eng, err := engine.New(store)
			if err != nil {
				return err
			}

			importer, err := csvimport.NewImporter(eng, os.Stderr)
			if err != nil {
				return err
			}

			result, err := importer.Import(ctx, userID, file)
			if err != nil {
				if result != nil && result.Imported > 0 {
					fmt.Println(cli.FormatWarning(fmt.Sprintf("Imported %d of %d rows before failing", result.Imported, result.Total)))
				}
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s)", result.Imported)))
			return nil
		},
	}
}
