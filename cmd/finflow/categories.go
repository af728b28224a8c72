package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
		Long:  `List, add, update, and delete the categories transactions are grouped under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLoadedApp(cmd, func(_ context.Context, a *app) error {
				return cli.RenderCategories(a.out, a.ledger.Categories())
			})
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txType, err := model.ParseTransactionType(categoryType)
			if err != nil {
				return err
			}

			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				category, err := a.ledger.AddCategory(ctx, model.CategoryDraft{Name: args[0], Type: txType})
				if err != nil {
					return fmt.Errorf("failed to create category: %w", err)
				}

				a.println(cli.FormatSuccess(fmt.Sprintf("Created %s category %q (ID: %s)", category.Type, category.Name, category.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", string(model.TypeExpense), "Category type (income or expense)")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		categoryName string
		categoryType string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category",
		Long: `Update the name or type of an existing category. Transactions in the
category show the new name immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if categoryName == "" && categoryType == "" {
				return fmt.Errorf("must specify --name or --type to update")
			}

			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				category, err := a.category(args[0])
				if err != nil {
					return err
				}

				if categoryName != "" {
					category.Name = categoryName
				}
				if categoryType != "" {
					if category.Type, err = model.ParseTransactionType(categoryType); err != nil {
						return err
					}
				}

				updated, err := a.ledger.UpdateCategory(ctx, category)
				if err != nil {
					return fmt.Errorf("failed to update category: %w", err)
				}

				a.println(cli.FormatSuccess(fmt.Sprintf("Updated category %s", updated.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryName, "name", "", "New category name")
	cmd.Flags().StringVar(&categoryType, "type", "", "New category type (income or expense)")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. This fails if any transaction uses the category.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				category, err := a.category(args[0])
				if err != nil {
					return err
				}

				ok, err := a.confirm(ctx, force, fmt.Sprintf("Are you sure you want to delete category %q?", category.Name))
				if err != nil {
					return err
				}
				if !ok {
					a.println("Deletion cancelled.")
					return nil
				}

				if err := a.ledger.DeleteCategory(ctx, category.ID); err != nil {
					return fmt.Errorf("failed to delete category: %w", err)
				}

				a.println(cli.FormatSuccess(fmt.Sprintf("Deleted category %s", category.ID)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
