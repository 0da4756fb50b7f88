package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"calls-dashboard/connectors/session"
	"calls-dashboard/connectors/xlsx"
	dc "calls-dashboard/domain/config"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors an uploads directory and ingests every workbook dropped into it
// as the inbox session. A failed ingestion leaves the previous inbox table in place.
type Watcher struct {
	dir   string
	cfg   dc.Ingest
	store *session.Store
}

func New(dir string, cfg dc.Ingest, store *session.Store) *Watcher {
	return &Watcher{dir: dir, cfg: cfg, store: store}
}

// Start watches the directory until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && isWorkbook(evt.Name) {
					w.Ingest(evt.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("watch.error", "dir", w.dir, "error", err)
			}
		}
	}()
	slog.Info("watch.start", "dir", w.dir)
	return nil
}

// Backfill ingests the most recently modified workbook already present.
func (w *Watcher) Backfill() error {
	entries, err := filepath.Glob(filepath.Join(w.dir, "*"))
	if err != nil {
		return err
	}
	var newest string
	var newestMod int64
	for _, e := range entries {
		if !isWorkbook(e) {
			continue
		}
		fi, err := os.Stat(e)
		if err != nil || fi.IsDir() {
			continue
		}
		if m := fi.ModTime().UnixNano(); newest == "" || m > newestMod {
			newest, newestMod = e, m
		}
	}
	if newest == "" {
		return nil
	}
	w.Ingest(newest)
	return nil
}

// Ingest reads path and, on success, replaces the inbox table.
func (w *Watcher) Ingest(path string) bool {
	t, err := xlsx.ReadFile(path, w.cfg)
	if err != nil {
		slog.Error("watch.ingest.error", "path", path, "error", err)
		return false
	}
	w.store.Set(session.Inbox, t)
	slog.Info("watch.ingest.done", "path", path, "records", len(t.Records), "months", len(t.Months()))
	return true
}

func isWorkbook(path string) bool {
	base := filepath.Base(path)
	// ~$ files are Excel lock files
	return strings.EqualFold(filepath.Ext(base), ".xlsx") && !strings.HasPrefix(base, "~$")
}
