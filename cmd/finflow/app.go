package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finflow/internal/api"
	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/config"
	"github.com/Veraticus/finflow/internal/ledger"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/prefs"
)

// errOffline is returned after the connection diagnostic has been printed.
var errOffline = errors.New("the finance server could not be reached")

// app bundles what every command needs.
type app struct {
	store  *prefs.Store
	ledger *ledger.Synchronizer
	out    io.Writer
	errOut io.Writer
	in     io.Reader
}

// newApp is replaced in tests.
var newApp = openApp

// openApp loads the configuration, opens the preference store and wires
// the API client and synchronizer to it.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := prefs.Open(cfg.PreferencesPath, cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	client := api.NewClient(store,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		api.WithLogger(slog.Default()))

	return &app{
		store:  store,
		ledger: ledger.New(client, ledger.WithLogger(slog.Default())),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close preference store", "error", err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

// withLoadedApp is withApp after a successful refresh.
func withLoadedApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.refresh(ctx); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}

// refresh reloads server state behind a spinner. When the server cannot
// be reached the connection diagnostic is printed and errOffline returned.
func (a *app) refresh(ctx context.Context) error {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(a.errOut),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Loading from "+a.store.BaseURL(ctx)),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = spinner.Add(1)
			}
		}
	}()

	connectivity := a.ledger.Refresh(ctx)
	close(done)
	<-stopped
	_ = spinner.Finish()

	if connectivity == model.Offline {
		if err := cli.RenderOffline(a.out, a.store.BaseURL(ctx), a.ledger.LastError()); err != nil {
			return err
		}
		return errOffline
	}
	return nil
}

func (a *app) settings(ctx context.Context) model.Settings {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		slog.Warn("Failed to read settings, using defaults", "error", err)
		return model.DefaultSettings()
	}
	return settings
}

func (a *app) println(msg string) {
	fmt.Fprintln(a.out, msg)
}

// category looks up a category held by the synchronizer.
func (a *app) category(id string) (model.Category, error) {
	cat, ok := a.ledger.Category(model.ID(id))
	if !ok {
		return model.Category{}, fmt.Errorf("category %q not found", id)
	}
	return cat, nil
}

// transaction looks up a transaction held by the synchronizer.
func (a *app) transaction(id string) (model.Transaction, error) {
	for _, t := range a.ledger.Transactions() {
		if t.ID == model.ID(id) {
			return t, nil
		}
	}
	return model.Transaction{}, fmt.Errorf("transaction %q not found", id)
}

// confirm asks before a destructive action unless force is set.
func (a *app) confirm(ctx context.Context, force bool, question string) (bool, error) {
	if force {
		return true, nil
	}
	return cli.NewCLIPrompter(a.in, a.out).Confirm(ctx, question)
}
