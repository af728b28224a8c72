package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/view"
)

func summaryCmd() *cobra.Command {
	var (
		filter view.Filter
		chart  string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and balance totals with an expense chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLoadedApp(cmd, func(ctx context.Context, a *app) error {
				settings := a.settings(ctx)
				if chart != "" {
					chartType, err := model.ParseChartType(chart)
					if err != nil {
						return err
					}
					settings.ChartType = chartType
				}

				txns := view.FilterTransactions(a.ledger.Transactions(), filter)
				if err := cli.RenderSummary(a.out, view.Summarize(txns), settings.Currency); err != nil {
					return err
				}
				return cli.RenderChart(a.out, view.CategorySeries(txns), settings.ChartType, settings.Currency)
			})
		},
	}

	cmd.Flags().StringVar(&filter.YearMonth, "month", "", "Only include this month (YYYY-MM)")
	cmd.Flags().Var(idFlag{&filter.CategoryID}, "category", "Only include this category ID")
	cmd.Flags().StringVar(&chart, "chart", "", "Chart type (bar, pie, line); defaults to the saved setting")

	return cmd
}

func monthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List the months that have transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLoadedApp(cmd, func(_ context.Context, a *app) error {
				months := view.AvailableMonths(a.ledger.Transactions())
				if len(months) == 0 {
					a.println(cli.InfoStyle.Render("No transactions yet."))
					return nil
				}
				for _, m := range months {
					fmt.Fprintln(a.out, m)
				}
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the finance server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				fmt.Fprintf(a.out, "Server: %s\n", a.store.BaseURL(ctx))

				health := model.Offline
				if a.ledger.Ping(ctx) {
					health = model.Online
				}
				fmt.Fprintf(a.out, "Health check: %s\n", cli.FormatConnectivity(health))

				if err := a.refresh(ctx); err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Status: %s\n", cli.FormatConnectivity(a.ledger.Connectivity()))
				fmt.Fprintf(a.out, "Loaded %d transactions in %d categories\n",
					len(a.ledger.Transactions()), len(a.ledger.Categories()))
				return nil
			})
		},
	}
}
