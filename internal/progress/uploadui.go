// Package progress renders upload progress for the CLI using mpb.
// Falls back to silence on non-TTY output so piped runs stay clean.
package progress

import (
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/printstash/printstash/internal/events"
)

// BatchUI renders one byte-progress bar for a batched upload.
type BatchUI struct {
	progress   *mpb.Progress
	bar        *mpb.Bar
	total      int64
	isTerminal bool
}

// NewBatchUI creates the progress display for a batch of totalBytes.
// On non-terminal stderr the UI is inert.
func NewBatchUI(label string, totalBytes int64) *BatchUI {
	ui := &BatchUI{
		total:      totalBytes,
		isTerminal: term.IsTerminal(int(os.Stderr.Fd())),
	}
	if !ui.isTerminal {
		return ui
	}

	ui.progress = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithRefreshRate(200*time.Millisecond),
		mpb.WithWidth(80),
	)
	ui.bar = ui.progress.AddBar(totalBytes,
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.CountersKibiByte("% .1f / % .1f"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.AverageSpeed(decor.SizeB1024(0), " % .1f"),
		),
	)
	return ui
}

// Update sets the current number of bytes sent.
func (ui *BatchUI) Update(sent int64) {
	if ui.bar != nil {
		ui.bar.SetCurrent(sent)
	}
}

// Listen consumes batch progress events until the channel closes.
// Intended to run in its own goroutine alongside the submission.
func (ui *BatchUI) Listen(ch <-chan events.Event) {
	for ev := range ch {
		if pe, ok := ev.(events.ProgressEvent); ok {
			ui.Update(pe.BytesSent)
		}
	}
}

// Done completes the bar and flushes the display.
func (ui *BatchUI) Done() {
	if ui.bar == nil {
		return
	}
	ui.bar.SetTotal(ui.total, true)
	ui.progress.Wait()
}

// Abort drops the bar without completing it, for failed submissions.
func (ui *BatchUI) Abort() {
	if ui.bar == nil {
		return
	}
	ui.bar.Abort(true)
	ui.progress.Wait()
}
