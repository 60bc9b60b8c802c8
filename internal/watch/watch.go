// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch offers reports dropped into an intake folder for upload.
//
// Scanners and download folders write files in several steps, so a file
// is only offered once it has been quiet for the debounce period. Files of
// an unsupported type are ignored.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/upload"
)

// DefaultDebounce is how long a file must stay unchanged before it is offered.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	files    chan *upload.File
	pending  map[string]time.Time
	log      *zap.Logger
}

// New starts watching dir. Run must be called to process events.
func New(dir string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir: %s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch dir: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		watcher:  w,
		files:    make(chan *upload.File, 8),
		pending:  make(map[string]time.Time),
		log:      log,
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Files delivers reports ready for upload. It is closed when Run returns.
func (w *Watcher) Files() <-chan *upload.File {
	return w.files
}

// Run processes events until ctx is canceled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.files)
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.String("dir", w.dir), zap.Error(err))

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				f, err := upload.Open(path)
				if err != nil {
					w.log.Debug("skipping intake file", zap.String("path", path), zap.Error(err))
					continue
				}
				select {
				case w.files <- f:
					w.log.Info("intake file ready", zap.String("file", f.Name))
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if !candidate(event.Name) {
			return
		}
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
}

// settled returns files that have been quiet for the debounce period.
func (w *Watcher) settled(now time.Time) []string {
	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

// candidate filters by name before the file is opened. Hidden and partial
// download files are skipped.
func candidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".part", ".crdownload", ".tmp", ".download":
		return false
	}
	return upload.Accepted(upload.DetectMime(path, nil))
}
