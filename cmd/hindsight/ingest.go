package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fenwick/hindsight/internal/cli"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Stage a loan application file into the staging store",
		Long: `Load a CSV of historical loan applications, validate every record,
derive the categorical bands, and upload the dataset to the staging store.

Staging replaces whatever the store held before, in one transaction, and the
uploaded row count is verified against the local count afterwards. Use
'hindsight audit --from-store' to run the audit over staged data.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	addStorageFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Validate and derive bands without uploading")

	_ = viper.BindPFlag("ingest.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	slog.Info(cli.FormatTitle("Staging loan applications"))

	result, err := loadApplicationFile(ctx, path)
	if err != nil {
		return err
	}

	banded, bandExcluded := deriveBanded(result.Applications, true)
	excluded := result.Excluded + bandExcluded
	if len(banded) == 0 {
		return fmt.Errorf("no records survived validation (%d excluded)", excluded)
	}

	if viper.GetBool("ingest.dry_run") {
		slog.Info(cli.FormatWarning("Dry run mode - not uploading to the staging store"))
		slog.Info(cli.RenderBox("Ingest Summary", fmt.Sprintf(
			"File:     %s\nRows:     %d\nStageable: %d\nExcluded: %d",
			path, result.RowsRead, len(banded), excluded)))
		return nil
	}

	store, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	slog.Info("💾 Uploading to the staging store...", "rows", len(banded))
	if err := store.ReplaceApplications(ctx, banded); err != nil {
		return fmt.Errorf("failed to stage applications: %w", err)
	}

	slog.Info(cli.FormatSuccess("Staging complete!"))
	slog.Info(cli.RenderBox("Ingest Summary", fmt.Sprintf(
		"File:     %s\nRows:     %d\nStaged:   %d\nExcluded: %d",
		path, result.RowsRead, len(banded), excluded)))

	return nil
}
