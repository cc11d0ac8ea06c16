package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// Writer appends entries as JSON lines, one file per UTC day of Entry.Time.
type Writer struct {
	dir    string
	prefix string

	mu   sync.Mutex
	file *os.File
	day  string // day of the open file
}

func NewWriter(dir, prefix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}
	return &Writer{dir: dir, prefix: prefix}, nil
}

// Write appends e to the file for e.Time's day, switching files when the
// day changes.
func (w *Writer) Write(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling %s entry: %w", e.Kind, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.openDay(e.Time.UTC().Format(dayLayout)); err != nil {
		return err
	}
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("appending %s entry: %w", e.Kind, err)
	}
	return nil
}

// PathFor is the file holding entries recorded at t.
func (w *Writer) PathFor(t time.Time) string {
	return w.path(t.UTC().Format(dayLayout))
}

func (w *Writer) path(day string) string {
	return filepath.Join(w.dir, w.prefix+"-"+day+".jsonl")
}

// openDay must be called with w.mu held.
func (w *Writer) openDay(day string) error {
	if w.file != nil && w.day == day {
		return nil
	}
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	f, err := os.OpenFile(w.path(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening journal file: %w", err)
	}
	w.file = f
	w.day = day
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
