package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick/hindsight/internal/bands"
	"github.com/fenwick/hindsight/internal/cli"
	"github.com/fenwick/hindsight/internal/config"
	"github.com/fenwick/hindsight/internal/dataset"
	"github.com/fenwick/hindsight/internal/model"
	"github.com/fenwick/hindsight/internal/service"
	"github.com/fenwick/hindsight/internal/sheets"
	"github.com/fenwick/hindsight/internal/storage"
)

// addStorageFlags registers the staging-store flags shared by ingest and
// audit. Values resolve through stringSetting so each command's own flags
// win over config.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "SQLite staging database path")
	cmd.Flags().String("db", "", "staging backend (sqlite, postgres)")
	cmd.Flags().String("database-url", "", "Postgres connection string (overrides DATABASE_URL)")
}

// stringSetting resolves a setting: the command's flag when set, the viper
// key otherwise. Storage keys are shared between commands, so they cannot
// be viper-bound per flag without the bindings clobbering each other.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

// openStore opens the configured staging store, migrated and ready.
func openStore(ctx context.Context, cmd *cobra.Command) (service.Storage, error) {
	backend := stringSetting(cmd, "db", "storage.backend")

	switch backend {
	case "sqlite", "":
		path := config.ExpandPath(stringSetting(cmd, "store", "storage.path"))
		store, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open staging database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate staging database: %w", err)
		}
		return store, nil

	case "postgres":
		url := stringSetting(cmd, "database-url", "storage.database_url")
		if url == "" {
			var err error
			url, err = config.DatabaseURL()
			if err != nil {
				return nil, err
			}
		}
		store, err := storage.NewPostgresStorage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to staging database: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown staging backend %q (want sqlite or postgres)", backend)
	}
}

// loadApplicationFile parses a CSV of loan applications.
func loadApplicationFile(ctx context.Context, path string) (*dataset.LoadResult, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return dataset.NewReader().ParseFile(ctx, f)
}

// deriveBanded derives the four bands for each application, showing a
// progress bar. Out-of-domain records are warned and excluded.
func deriveBanded(apps []model.LoanApplication, showProgress bool) ([]model.BandedApplication, int) {
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = cli.NewProgressBar(os.Stderr, len(apps), "Deriving bands")
	}

	banded := make([]model.BandedApplication, 0, len(apps))
	excluded := 0
	for _, app := range apps {
		derived, err := bands.Derive(app)
		if err != nil {
			excluded++
			slog.Warn("Excluding out-of-domain record",
				"application_id", app.ApplicationID,
				"error", err)
		} else {
			banded = append(banded, model.BandedApplication{LoanApplication: app, Bands: derived})
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return banded, excluded
}

// exportSummary pushes a finished summary to Google Sheets with whatever
// credentials are configured. Shared by audit --sheets and report --sheets.
func exportSummary(ctx context.Context, summary *service.AuditSummary) error {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatInfo("Exporting summary to Google Sheets...")) //nolint:forbidigo // User-facing output
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}
	if err := writer.Write(ctx, summary); err != nil {
		return fmt.Errorf("failed to export summary: %w", err)
	}
	fmt.Println(cli.FormatSuccess("Summary exported to Google Sheets!")) //nolint:forbidigo // User-facing output
	return nil
}

// loadScoredFile parses a previously exported scored CSV.
func loadScoredFile(ctx context.Context, path string) ([]model.ScoredApplication, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return dataset.NewReader().ParseScoredFile(ctx, f)
}
