package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ImportStats summarizes a statement import.
type ImportStats struct {
	Duration time.Duration
	Total    int
	Created  int
	Skipped  int
	Failed   int
}

// Prompter asks for confirmations and reports progress of long-running commands.
type Prompter struct {
	startTime   time.Time
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
	stats       ImportStats
	statsMutex  sync.RWMutex
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:    NewNonBlockingReader(reader),
		writer:    writer,
		startTime: time.Now(),
	}
}

// Confirm asks a yes/no question. Anything but "y" or "yes" is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.writer, "%s (y/N): ", PromptStyle.Render(question)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// StartImport shows a progress bar for total statement lines.
func (p *Prompter) StartImport(total int) {
	p.statsMutex.Lock()
	p.stats = ImportStats{Total: total}
	p.startTime = time.Now()
	p.statsMutex.Unlock()

	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// RecordCreated counts a created transaction.
func (p *Prompter) RecordCreated() {
	p.record(func(s *ImportStats) { s.Created++ })
}

// RecordSkipped counts a statement line that was not imported.
func (p *Prompter) RecordSkipped() {
	p.record(func(s *ImportStats) { s.Skipped++ })
}

// RecordFailed counts a line the server rejected.
func (p *Prompter) RecordFailed() {
	p.record(func(s *ImportStats) { s.Failed++ })
}

func (p *Prompter) record(update func(*ImportStats)) {
	p.statsMutex.Lock()
	update(&p.stats)
	p.statsMutex.Unlock()

	if p.progressBar != nil {
		if err := p.progressBar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
}

// Stats returns the import statistics so far.
func (p *Prompter) Stats() ImportStats {
	p.statsMutex.RLock()
	defer p.statsMutex.RUnlock()

	stats := p.stats
	stats.Duration = time.Since(p.startTime)
	return stats
}

// ShowCompletion displays the import summary.
func (p *Prompter) ShowCompletion(dryRun bool) {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	stats := p.Stats()
	created := "Created"
	if dryRun {
		created = "Would create"
	}

	summary := fmt.Sprintf("%s Statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Statement lines: %d\n", stats.Total) +
		fmt.Sprintf("  • %s: %d\n", created, stats.Created) +
		fmt.Sprintf("  • Skipped: %d\n", stats.Skipped) +
		fmt.Sprintf("  • Failed: %d\n", stats.Failed) +
		fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Millisecond))

	if _, err := fmt.Fprintln(p.writer, RenderBox("Import Complete", summary)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}
