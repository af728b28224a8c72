package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/view"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Manage income and expense transactions",
		Long:    `List, add, update, and delete transactions on the finance server.`,
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var filter view.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				settings := a.settings(ctx)
				txns := view.FilterTransactions(a.ledger.Transactions(), filter)

				if err := cli.RenderTransactions(a.out, txns, settings.Currency); err != nil {
					return err
				}
				return cli.RenderSummary(a.out, view.Summarize(txns), settings.Currency)
			})
		},
	}

	cmd.Flags().StringVar(&filter.YearMonth, "month", "", "Only show this month (YYYY-MM)")
	cmd.Flags().Var(idFlag{&filter.CategoryID}, "category", "Only show this category ID")

	return cmd
}

// transactionFlags holds the field flags shared by add and update.
type transactionFlags struct {
	txType      string
	amount      string
	categoryID  string
	date        string
	description string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.txType, "type", "t", string(model.TypeExpense), "Transaction type (income or expense)")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount (non-negative)")
	cmd.Flags().StringVarP(&f.categoryID, "category", "c", "", "Category ID")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.description, "description", "", "Free-text description")
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

func addTransactionCmd() *cobra.Command {
	var (
		f           transactionFlags
		newCategory string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new transaction",
		Long: `Record a new transaction. When --category is omitted the first category of
the transaction's type is used. --new-category creates a category of the
transaction's type first and files the transaction under it.`,
		Example: `  finflow transactions add --type expense --amount 50000 --category 3 --description lunch
  finflow transactions add --amount 1200 --new-category Rent`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txType, err := model.ParseTransactionType(f.txType)
			if err != nil {
				return err
			}
			amount, err := parseAmount(f.amount)
			if err != nil {
				return err
			}
			if newCategory != "" && f.categoryID != "" {
				return fmt.Errorf("use either --category or --new-category, not both")
			}
			date := f.date
			if date == "" {
				date = time.Now().Format(model.DateLayout)
			}

			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				var (
					category model.Category
					err      error
				)
				if newCategory != "" {
					category, err = a.ledger.AddCategory(ctx, model.CategoryDraft{Name: newCategory, Type: txType})
					if err != nil {
						return fmt.Errorf("failed to create category: %w", err)
					}
				} else if category, err = pickCategory(a, f.categoryID, txType); err != nil {
					return err
				}

				created, err := a.ledger.AddTransaction(ctx, model.TransactionDraft{
					Type:        txType,
					Amount:      amount,
					Category:    category,
					Date:        date,
					Description: f.description,
				})
				if err != nil {
					return fmt.Errorf("failed to add transaction: %w", err)
				}

				settings := a.settings(ctx)
				a.println(cli.FormatSuccess(fmt.Sprintf("Added %s of %s in %s (ID: %s)",
					created.Type, cli.FormatAmount(created.Amount, settings.Currency), created.Category.Name, created.ID)))
				return nil
			})
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&newCategory, "new-category", "", "Create a category with this name and use it")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// pickCategory resolves an explicit category ID or falls back to the first
// category of the given type.
func pickCategory(a *app, id string, txType model.TransactionType) (model.Category, error) {
	if id != "" {
		return a.category(id)
	}
	category, ok := view.DefaultCategory(a.ledger.Categories(), txType)
	if !ok {
		return model.Category{}, fmt.Errorf("no %s categories exist; create one with 'finflow categories add'", txType)
	}
	return category, nil
}

func updateTransactionCmd() *cobra.Command {
	var f transactionFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Long:  `Update fields of an existing transaction. Fields that are not given keep their current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("type") && !flags.Changed("amount") && !flags.Changed("category") &&
				!flags.Changed("date") && !flags.Changed("description") {
				return fmt.Errorf("must specify at least one of --type, --amount, --category, --date or --description")
			}

			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				txn, err := a.transaction(args[0])
				if err != nil {
					return err
				}

				if flags.Changed("type") {
					if txn.Type, err = model.ParseTransactionType(f.txType); err != nil {
						return err
					}
				}
				if flags.Changed("amount") {
					if txn.Amount, err = parseAmount(f.amount); err != nil {
						return err
					}
				}
				if flags.Changed("category") {
					if txn.Category, err = a.category(f.categoryID); err != nil {
						return err
					}
				}
				if flags.Changed("date") {
					txn.Date = f.date
				}
				if flags.Changed("description") {
					txn.Description = f.description
				}

				updated, err := a.ledger.UpdateTransaction(ctx, txn)
				if err != nil {
					return fmt.Errorf("failed to update transaction: %w", err)
				}

				a.println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %s", updated.ID)))
				return nil
			})
		},
	}

	f.register(cmd)

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				txn, err := a.transaction(args[0])
				if err != nil {
					return err
				}

				ok, err := a.confirm(ctx, force, fmt.Sprintf("Delete transaction %s (%s, %s)?", txn.ID, txn.Date, txn.Category.Name))
				if err != nil {
					return err
				}
				if !ok {
					a.println("Deletion cancelled.")
					return nil
				}

				if err := a.ledger.DeleteTransaction(ctx, txn.ID); err != nil {
					return fmt.Errorf("failed to delete transaction: %w", err)
				}

				a.println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %s", txn.ID)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}

// idFlag adapts a model.ID to pflag.Value.
type idFlag struct {
	id *model.ID
}

func (f idFlag) String() string {
	if f.id == nil {
		return ""
	}
	return string(*f.id)
}

func (f idFlag) Set(s string) error {
	*f.id = model.ID(s)
	return nil
}

func (f idFlag) Type() string {
	return "id"
}
