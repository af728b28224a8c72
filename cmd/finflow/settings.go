package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := cli.RenderSettings(a.out, a.settings(ctx), a.store.BaseURL(ctx)); err != nil {
					return err
				}
				a.println(cli.SubtleStyle.Render("Preferences: " + a.store.Path()))
				return nil
			})
		},
	})
	cmd.AddCommand(setSettingsCmd())

	return cmd
}

func setSettingsCmd() *cobra.Command {
	var currency, chart string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the display currency or chart type",
		Example: `  finflow settings set --currency USD
  finflow settings set --chart bar`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch model.SettingsPatch

			if currency != "" {
				c, err := model.ParseCurrency(currency)
				if err != nil {
					return err
				}
				patch.Currency = &c
			}
			if chart != "" {
				c, err := model.ParseChartType(chart)
				if err != nil {
					return err
				}
				patch.ChartType = &c
			}
			if patch.Currency == nil && patch.ChartType == nil {
				return fmt.Errorf("must specify --currency or --chart")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				settings, err := a.store.UpdateSettings(ctx, patch)
				if err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Settings saved"))
				return cli.RenderSettings(a.out, settings, a.store.BaseURL(ctx))
			})
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "Display currency (IRR, USD, EUR)")
	cmd.Flags().StringVar(&chart, "chart", "", "Chart type (bar, pie, line)")

	return cmd
}

func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Show or change the finance server address",
		Long: `Show or change the finance server address. The saved address takes
precedence over --server, FINFLOW_SERVER_URL and FINFLOW_API_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the server address in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				fmt.Fprintf(a.out, "Server:  %s\n", a.store.BaseURL(ctx))
				fmt.Fprintf(a.out, "Default: %s\n", a.store.DefaultBaseURL())
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <url>",
		Short:   "Save a new server address and reconnect",
		Example: `  finflow server set http://192.168.1.20:8080`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SetBaseURL(ctx, args[0]); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Server address saved: " + a.store.BaseURL(ctx)))
				return reconnect(ctx, a)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the saved address and use the default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.ResetBaseURL(ctx); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Server address reset to " + a.store.BaseURL(ctx)))
				return reconnect(ctx, a)
			})
		},
	})

	return cmd
}

// reconnect refreshes against the newly saved address.
func reconnect(ctx context.Context, a *app) error {
	if err := a.refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Status: %s\n", cli.FormatConnectivity(a.ledger.Connectivity()))
	return nil
}
