package layers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a layers file whenever it changes on disk.
//
// It watches the parent directory rather than the file, so saves that
// replace the file by rename keep being noticed.
type Watcher struct {
	// Path is the layers file to watch.
	Path string

	// Logger receives reload and watcher errors; nil discards them.
	Logger *slog.Logger
}

// Watch is shorthand for a Watcher without logging.
func Watch(ctx context.Context, path string, onChange func(*Document)) error {
	return (&Watcher{Path: path}).Run(ctx, onChange)
}

// Run calls onChange with the freshly loaded Document after every write to
// Path, until ctx is cancelled. A reload that fails to parse or validate is
// logged and skipped, leaving the previously applied layers in effect.
func (w *Watcher) Run(ctx context.Context, onChange func(*Document)) error {
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("layers: watch %s: %w", w.Path, err)
	}
	log := w.logger().With(slog.String("path", target))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("layers: watch: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("layers: watch %s: %w", w.Path, err)
	}
	log.Debug("layers: watching")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !touches(ev, target) {
				continue
			}
			doc, err := Load(target)
			if err != nil {
				log.Warn("layers: reload rejected", slog.Any("err", err))
				continue
			}
			log.Info("layers: reloaded", slog.Int("layers", len(doc.Layers)))
			onChange(doc)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error("layers: watcher error", slog.Any("err", err))
		}
	}
}

// touches reports whether ev wrote or (re)created target. Siblings in the
// same directory and removals are ignored.
func touches(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

func (w *Watcher) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}
