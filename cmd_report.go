package main

import (
	"fmt"
	"text/tabwriter"

	"evernote-drive/database"
	"evernote-drive/models"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show the outcome of a recorded migration run",
	Long: `Report prints the counts, failed files and per-note results of a run
recorded in the report database. Without a run ID the latest run is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if appConfig.ReportDB == "" {
			return fmt.Errorf("no report database configured")
		}

		db, err := database.New(appConfig.ReportDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}
		repo := database.NewRepository(db)

		var run *models.Run
		if len(args) == 1 {
			run, err = repo.GetRun(ctx, args[0])
		} else {
			run, err = repo.LatestRun(ctx)
		}
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no recorded run found")
		}

		failedOnly, _ := cmd.Flags().GetBool("failed")
		var statuses []string
		if failedOnly {
			statuses = []string{models.NoteStatusFailed, models.NoteStatusSkipped}
		}

		notes, err := repo.ListNoteResults(ctx, run.ID, statuses...)
		if err != nil {
			return err
		}
		attachments, err := repo.ListAttachmentResults(ctx, run.ID)
		if err != nil {
			return err
		}
		fileFailures, err := repo.ListFileFailures(ctx, run.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s started %s", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if run.DryRun {
			fmt.Fprint(out, " (dry run)")
		}
		fmt.Fprintln(out)
		if run.FinishedAt == nil {
			fmt.Fprintln(out, "Run did not finish")
		} else {
			fmt.Fprintf(out, "%d succeeded, %d failed, %d file(s) failed", run.Succeeded, run.Failed, run.FilesFailed)
			if run.Cancelled {
				fmt.Fprint(out, ", cancelled")
			}
			fmt.Fprintln(out)
		}

		for _, f := range fileFailures {
			fmt.Fprintf(out, "file failed: %s: %s\n", f.Path, f.Error)
		}

		if len(notes) > 0 {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NOTEBOOK\tTITLE\tSTATUS\tDETAIL")
			for _, n := range notes {
				detail := n.DocumentID
				if n.Status != models.NoteStatusUploaded {
					detail = n.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Notebook, displayTitle(n.Title), n.Status, detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		return printAttachments(cmd, attachments, failedOnly)
	},
}

func printAttachments(cmd *cobra.Command, attachments []models.AttachmentResult, failedOnly bool) error {
	var rows []models.AttachmentResult
	for _, a := range attachments {
		if !failedOnly || a.Error != "" {
			rows = append(rows, a)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NOTE\tATTACHMENT\tMD5\tSTATUS\tDETAIL")
	for _, a := range rows {
		status, detail := "uploaded", a.FileID
		switch {
		case a.Error != "":
			status, detail = "failed", a.Error
		case a.Reused:
			status = "reused"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", displayTitle(a.NoteTitle), a.Name, a.Hash, status, detail)
	}
	return w.Flush()
}

func displayTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}

func init() {
	reportCmd.Flags().Bool("failed", false, "only list failed notes")
	rootCmd.AddCommand(reportCmd)
}
