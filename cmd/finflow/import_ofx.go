package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var (
		incomeCategory  string
		expenseCategory string
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import statement lines from OFX or QFX files exported from your bank.

Credits become income and debits become expenses. Lines that match an
existing transaction (same date, type, amount and description) are skipped.
Without --income-category or --expense-category the first category of each
type is used.

Examples:
  # Import single file
  finflow import-ofx ~/Downloads/checking_jan_2024.qfx

  # Preview all QFX files in a directory
  finflow import-ofx --dry-run ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				entries, err := parseFiles(ctx, files)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					a.println(cli.FormatWarning("No statement lines found"))
					return nil
				}

				categories := map[model.TransactionType]model.Category{}
				for txType, id := range map[model.TransactionType]string{
					model.TypeIncome:  incomeCategory,
					model.TypeExpense: expenseCategory,
				} {
					cat, err := pickCategory(a, id, txType)
					if err != nil {
						if id != "" {
							return err
						}
						slog.Warn("No category for statement lines of this type; they will be skipped", "type", txType)
						continue
					}
					categories[txType] = cat
				}

				interrupts := cli.NewInterruptHandler(a.errOut)
				ctx = interrupts.HandleInterrupts(ctx, true)

				return importEntries(ctx, a, entries, categories, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&incomeCategory, "income-category", "", "Category ID for credits")
	cmd.Flags().StringVar(&expenseCategory, "expense-category", "", "Category ID for debits")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview import without creating transactions")

	return cmd
}

// expandFiles resolves glob patterns into existing files.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseFiles reads every file. Unreadable files are logged and skipped.
func parseFiles(ctx context.Context, files []string) ([]ofx.Entry, error) {
	parser := ofx.NewParser(slog.Default())

	var entries []ofx.Entry
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}

		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		slog.Info("Processed file", "file", filepath.Base(path), "entries", len(parsed))
		entries = append(entries, parsed...)
	}
	return entries, nil
}

// entryKey identifies a transaction by its visible fields.
type entryKey struct {
	txType      model.TransactionType
	date        string
	amount      string
	description string
}

func keyOf(txType model.TransactionType, date, description string, amount fmt.Stringer) entryKey {
	return entryKey{txType: txType, date: date, amount: amount.String(), description: description}
}

func importEntries(ctx context.Context, a *app, entries []ofx.Entry, categories map[model.TransactionType]model.Category, dryRun bool) error {
	existing := make(map[entryKey]bool)
	for _, t := range a.ledger.Transactions() {
		existing[keyOf(t.Type, t.Date, t.Description, t.Amount)] = true
	}

	prompter := cli.NewCLIPrompter(a.in, a.out)
	prompter.StartImport(len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		key := keyOf(entry.Type, entry.Date, entry.Description, entry.Amount)
		category, ok := categories[entry.Type]
		if !ok || existing[key] {
			prompter.RecordSkipped()
			continue
		}
		existing[key] = true

		if dryRun {
			prompter.RecordCreated()
			continue
		}

		if _, err := a.ledger.AddTransaction(ctx, entry.Draft(category)); err != nil {
			slog.Warn("Failed to create transaction",
				"fitid", entry.FitID,
				"date", entry.Date,
				"error", err)
			prompter.RecordFailed()
			continue
		}
		prompter.RecordCreated()
	}

	prompter.ShowCompletion(dryRun)

	if stats := prompter.Stats(); stats.Failed > 0 {
		return fmt.Errorf("%d of %d statement lines could not be imported", stats.Failed, stats.Total)
	}
	return nil
}
