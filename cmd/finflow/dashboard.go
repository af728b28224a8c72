package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/finflow/internal/tui"
	"github.com/Veraticus/finflow/internal/tui/themes"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Long: `Open a full-screen dashboard with the transaction table, totals and an
expense chart. Press ? for key bindings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return tui.Run(ctx, a.ledger,
					tui.WithTheme(themes.ByName(viper.GetString("ui.theme"))),
					tui.WithSettings(a.settings(ctx)),
					tui.WithBaseURL(a.store.BaseURL(ctx)),
				)
			})
		},
	}

	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin-mocha)")
	_ = viper.BindPFlag("ui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}
