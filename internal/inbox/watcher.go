// Package inbox books receipt photos dropped into a directory, for phones
// that sync their camera roll to a shared folder.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zombor/fuel-ledger/internal/ledger"
	"github.com/zombor/fuel-ledger/internal/scanning"
)

// Booker is the part of the ledger service the inbox drives
type Booker interface {
	ScanReceipt(filename string, data []byte, contentType string) (*ledger.Draft, error)
	CreateRecord(in ledger.RecordInput) (*ledger.Record, error)
}

// Config controls the inbox watcher
type Config struct {
	Dir      string
	Workers  int
	Category string // category of booked records; empty means the ledger default
	// Settle is how long a file must go without writes before it is read
	Settle time.Duration
	// Processed is the subdirectory booked files are moved to
	Processed string
}

// Watcher watches Config.Dir and books new receipt photos
type Watcher struct {
	cfg    Config
	booker Booker
}

// NewWatcher creates a Watcher, filling in defaults for unset fields
func NewWatcher(cfg Config, booker Booker) *Watcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 500 * time.Millisecond
	}
	if cfg.Processed == "" {
		cfg.Processed = "processed"
	}
	return &Watcher{cfg: cfg, booker: booker}
}

func isSupported(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".heic", ".heif", ".pdf":
		return true
	}
	return false
}

// Run books files already waiting in the directory and then every file
// that appears, until ctx is cancelled. In-flight files finish first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := os.MkdirAll(filepath.Join(w.cfg.Dir, w.cfg.Processed), 0755); err != nil {
		return fmt.Errorf("creating processed directory: %w", err)
	}
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	slog.Info("Watching inbox", "dir", w.cfg.Dir, "workers", w.cfg.Workers)

	// pending maps a path to the time of its last event
	pending := map[string]time.Time{}

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && isSupported(e.Name()) {
			pending[filepath.Join(w.cfg.Dir, e.Name())] = time.Time{}
		}
	}

	fileCh := make(chan string, 64)
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				w.process(path)
			}
		}()
	}
	defer func() {
		close(fileCh)
		wg.Wait()
	}()

	ticker := time.NewTicker(w.cfg.Settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isSupported(filepath.Base(ev.Name)) {
				continue
			}
			pending[ev.Name] = time.Now()

		case <-ticker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < w.cfg.Settle {
					continue
				}
				select {
				case fileCh <- path:
					delete(pending, path)
				case <-ctx.Done():
					return nil
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Inbox watch error", "error", err)
		}
	}
}

// process books one file and moves it out of the inbox. Failures leave
// the file in place so it is retried on the next start.
func (w *Watcher) process(path string) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return // already moved by an earlier event
		}
		slog.Error("Failed to read inbox file", "file", name, "error", err)
		return
	}

	draft, err := w.booker.ScanReceipt(name, data, scanning.ContentTypeFromFilename(name))
	if err != nil {
		slog.Error("Failed to scan inbox file", "file", name, "error", err)
		return
	}

	if !draft.Fields.Bookable() {
		slog.Warn("No amount, liters or unit price found; leaving file in inbox", "file", name)
		return
	}

	record, err := w.booker.CreateRecord(draft.RecordInput(w.cfg.Category))
	if err != nil {
		slog.Error("Failed to book inbox file", "file", name, "error", err)
		return
	}
	slog.Info("Booked receipt from inbox",
		"file", name,
		"record_id", record.ID,
		"date", record.Date,
		"amount", record.Amount,
	)

	dest := filepath.Join(w.cfg.Dir, w.cfg.Processed, name)
	if err := os.Rename(path, dest); err != nil {
		slog.Warn("Failed to move booked file", "file", name, "error", err)
	}
}
