package cli

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/printstash/printstash/internal/events"
	"github.com/printstash/printstash/internal/pathutil"
	"github.com/printstash/printstash/internal/progress"
	"github.com/printstash/printstash/internal/upload"
)

func newFilesUploadCmd() *cobra.Command {
	var onConflict string

	cmd := &cobra.Command{
		Use:   "upload <project-id> <file>...",
		Short: "Upload files to a project",
		Long: `Upload one or more local files to a project in a single batch.

Before anything is sent, the selected filenames are checked against the
project's stored files. Each conflicting file must get a resolution:

  overwrite  replace the stored file
  skip       keep the stored file, do not upload this one
  rename     upload under a server-chosen unique name

Without --on-conflict the resolutions are prompted interactively.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var blanket upload.Resolution
			if onConflict != "" {
				var err error
				blanket, err = upload.ParseResolution(onConflict)
				if err != nil {
					return err
				}
			}
			return runUpload(cmd, args[0], args[1:], blanket)
		},
	}

	cmd.Flags().StringVar(&onConflict, "on-conflict", "",
		"Apply one resolution to every conflict: overwrite, skip or rename (default: prompt)")
	return cmd
}

func runUpload(cmd *cobra.Command, projectID string, paths []string, blanket upload.Resolution) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	files := make([]upload.LocalFile, 0, len(paths))
	var totalBytes int64
	for _, p := range paths {
		resolved, err := pathutil.Resolve(p)
		if err != nil {
			return err
		}
		f, err := upload.NewLocalFile(resolved)
		if err != nil {
			return err
		}
		files = append(files, f)
		totalBytes += f.Size
	}

	bus := events.NewBus(64)
	defer bus.Close()

	orch := upload.NewOrchestrator(projectID, client, bus, logger)
	if err := orch.AddFiles(files...); err != nil {
		return err
	}

	ctx := cmd.Context()

	conflicts, err := orch.Check(ctx)
	if err != nil {
		return fmt.Errorf("conflict check failed, nothing was uploaded: %w", err)
	}

	if len(conflicts) > 0 {
		fmt.Printf("%d file(s) conflict with stored files:\n", len(conflicts))
		for _, c := range conflicts {
			res := blanket
			if res == "" {
				res, err = promptResolution(c)
				if err != nil {
					return err
				}
			}
			if err := orch.Resolve(c.Filename, res); err != nil {
				return err
			}
		}
	}

	ui := progress.NewBatchUI("uploading", totalBytes)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ui.Listen(bus.Subscribe(events.EventBatchProgress))
	}()

	outcome, submitErr := orch.Submit(ctx)

	bus.Close()
	wg.Wait()
	if submitErr != nil {
		ui.Abort()
	} else {
		ui.Done()
	}

	if submitErr != nil {
		var subErr *upload.SubmissionError
		if errors.As(submitErr, &subErr) {
			return fmt.Errorf("batch failed in transit, no per-file outcomes: %w", submitErr)
		}
		return submitErr
	}

	printOutcome(orch.Tasks(), outcome)
	if outcome.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", outcome.Failed, outcome.Total())
	}
	return nil
}

func printOutcome(tasks []*upload.Task, outcome *upload.Outcome) {
	table := newTable("File", "Status", "Detail")
	for _, t := range tasks {
		detail := ""
		if err := t.Err(); err != nil {
			detail = err.Error()
		}
		table.Append([]string{t.Filename, string(t.Status()), detail})
	}
	table.Render()

	fmt.Printf("\n%d uploaded, %d skipped, %d failed\n",
		outcome.Uploaded, outcome.Skipped, outcome.Failed)
	for _, name := range outcome.Renamed {
		fmt.Printf("  stored under new name: %s\n", name)
	}
}
