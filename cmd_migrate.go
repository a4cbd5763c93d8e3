package main

import (
	"context"
	"fmt"
	"strings"

	"evernote-drive/auth"
	"evernote-drive/database"
	"evernote-drive/drive"
	"evernote-drive/enex"
	"evernote-drive/metrics"
	"evernote-drive/migration"
	"evernote-drive/models"
	"evernote-drive/retry"

	"github.com/spf13/cobra"
)

// remoteStore is what both Drive and the dry run provide
type remoteStore interface {
	migration.RemoteStore
	migration.AttachmentStore
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [file.enex|dir]...",
	Short: "Upload .enex exports to Google Drive",
	Long: `Migrate creates one Drive folder per export file, named after the file, and
one Google Doc per note inside it. Directories are searched for *.enex files.

A note that fails is reported in the summary and the run continues. The
command exits non-zero when a whole export file could not be migrated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "parse exports and log what would be created without calling Drive")
	migrateCmd.Flags().Bool("attachments", false, "upload note attachments next to each document")
	migrateCmd.Flags().String("root-folder", "Evernote", "folder holding all notebook folders (empty for none)")
	migrateCmd.Flags().String("parent-folder-id", "", "Drive folder ID to migrate into (default: My Drive)")
	migrateCmd.Flags().Int("parallel-files", 1, "number of export files migrated at once")
	migrateCmd.Flags().Int("max-attempts", 3, "attempts per Drive call before giving up")
	migrateCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	bindFlags(migrateCmd.Flags().Lookup, map[string]string{
		"dry_run":          "dry-run",
		"attachments":      "attachments",
		"root_folder":      "root-folder",
		"parent_folder_id": "parent-folder-id",
		"parallel_files":   "parallel-files",
		"max_attempts":     "max-attempts",
		"metrics_file":     "metrics-file",
	})

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	files, err := enex.Discover(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .enex exports found in %s", strings.Join(args, ", "))
	}
	logger.Info("exports found", "count", len(files), "dry_run", cfg.DryRun)

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := migration.Options{
		ParentFolderID: cfg.ParentFolderID,
		RootFolder:     cfg.RootFolder,
		ParallelFiles:  cfg.ParallelFiles,
		Observer:       m,
	}

	var (
		repo  *database.Repository
		runID string
	)
	if cfg.ReportDB != "" {
		db, err := database.New(cfg.ReportDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}

		repo = database.NewRepository(db)
		run, err := repo.StartRun(ctx, args, cfg.DryRun)
		if err != nil {
			return err
		}
		runID = run.ID
		opts.Recorder = database.NewRunRecorder(repo, runID, logger)
		logger.Info("recording run", "run_id", runID, "path", cfg.ReportDB)
	}

	policy := retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    retry.DefaultMaxDelay,
	}

	var attachments migration.AttachmentStore
	if cfg.Attachments {
		attachments = store
	}

	resolver := migration.NewResolver(store, policy, m, logger)
	uploader := migration.NewUploader(store, attachments, policy, m, logger)
	runner := migration.NewRunner(enex.NewParser(logger), resolver, uploader, opts, logger)

	result := runner.Run(ctx, files)

	if repo != nil {
		if err := repo.FinishRun(context.WithoutCancel(ctx), runID, result); err != nil {
			logger.Warn("failed to finish run report", "run_id", runID, "error", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, result.Summary())
	if runID != "" {
		fmt.Fprintf(out, "Run report: %s (evernote-drive report %s)\n", runID, runID)
	}

	return exitError(result)
}

func openStore(ctx context.Context) (remoteStore, error) {
	if appConfig.DryRun {
		return drive.NewDryRunService(logger), nil
	}

	oauthConfig, err := auth.LoadConfig(appConfig.CredentialsFile, appConfig.AuthPort)
	if err != nil {
		return nil, err
	}

	httpClient, err := auth.NewHTTPClient(ctx, oauthConfig, auth.NewTokenStore(appConfig.TokenFile), logger)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// exitError turns file-scoped failures and cancellation into a non-zero exit.
// Failed notes alone only show up in the summary.
func exitError(result *models.MigrationResult) error {
	switch {
	case result.Cancelled:
		return fmt.Errorf("migration cancelled")
	case result.HasFileFailures():
		return fmt.Errorf("%d export file(s) could not be migrated", len(result.FileFailures))
	default:
		return nil
	}
}
