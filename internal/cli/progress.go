package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/schollz/progressbar/v3"
)

// BackfillProgress returns a progress callback drawing a bar on w. The bar is
// created on the first call, once the page total is known.
func BackfillProgress(w io.Writer) engine.BackfillProgress {
	var bar *progressbar.ProgressBar
	return func(done, total int, page string) {
		if bar == nil {
			bar = newProgressBar(w, total, "Backfilling causes...")
		}
		if err := bar.Set(done); err != nil {
			slog.Warn("Failed to update progress bar", "error", err, "page", page)
		}
	}
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
