package history

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Writer appends to the release log with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the release log.
	StateDir string
	// MaxEntries is the maximum number of entries to retain. Zero keeps all.
	MaxEntries int
	// Warnings receives non-fatal errors (default: os.Stderr).
	Warnings io.Writer

	mu sync.Mutex
}

// NewWriter creates a new release log writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
	}
}

// LogEntry adds a new entry to the release log.
// Errors are non-fatal: the release already happened, so they are only
// reported as warnings.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.logEntryInternal(entry); err != nil {
		out := w.Warnings
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Warning: failed to record release: %v\n", err)
	}
}

func (w *Writer) logEntryInternal(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading release log: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving release log: %w", err)
	}

	return nil
}

// LogRelease is a convenience method to record a tagged release.
func (w *Writer) LogRelease(name, version, tag string, now time.Time) {
	w.LogEntry(HistoryEntry{
		Timestamp: now,
		Name:      name,
		Version:   version,
		Tag:       tag,
	})
}
