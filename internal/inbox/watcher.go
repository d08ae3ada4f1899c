package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/murmur/internal/storage"
)

// DefaultSettle is how long a dropped file must stay quiet before it is
// picked up. Copies into the inbox arrive as a burst of write events.
const DefaultSettle = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the inbox directory and ingests
// every audio file dropped there until ctx is cancelled. Ingested files
// are removed from the inbox; non-audio files are left alone.
func Watch(ctx context.Context, ing *Ingestor, dir string, settle time.Duration, logger *slog.Logger) error {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("inbox: watching", slog.String("dir", dir))

	// One settle timer per path, reset on every write so a file is only
	// picked up once the copy has finished.
	pending := make(map[string]*time.Timer)
	readyCh := make(chan string, 16)
	schedule := func(path string) {
		if t, ok := pending[path]; ok {
			t.Reset(settle)
			return
		}
		pending[path] = time.AfterFunc(settle, func() {
			select {
			case readyCh <- path:
			case <-ctx.Done():
			}
		})
	}

	// Pick up anything already sitting in the inbox at startup.
	if entries, readErr := os.ReadDir(dir); readErr == nil {
		for _, e := range entries {
			if !e.IsDir() && storage.IsAudio(e.Name()) {
				schedule(filepath.Join(dir, e.Name()))
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case path := <-readyCh:
			delete(pending, path)
			pickup(ing, path, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !storage.IsAudio(ev.Name) {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// pickup ingests one settled file and removes it from the inbox.
func pickup(ing *Ingestor, path string, logger *slog.Logger) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("inbox: read failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}

	rec, err := ing.Ingest(name, data)
	if err != nil {
		logger.Warn("inbox: ingest failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("inbox: cleanup failed", slog.String("file", name), slog.String("error", err.Error()))
	}
	logger.Info("inbox: ingested", slog.String("file", name), slog.String("id", rec.ID))
}
