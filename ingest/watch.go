package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tsawler/ocrlayout/format"
)

// SubmitFunc hands a settled file to the processing queue.
type SubmitFunc func(ctx context.Context, path string) error

// DefaultSettle is how long a file must go without writes before it is
// submitted.
const DefaultSettle = 2 * time.Second

// Watcher submits files dropped into a directory. Only formats the pipeline
// can read directly are picked up; hidden files are ignored. A file is
// submitted once it has stopped changing for the settle period.
type Watcher struct {
	dir    string
	submit SubmitFunc
	log    zerolog.Logger

	// Settle is the quiet period before submission (default: DefaultSettle)
	Settle time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, submit SubmitFunc, log zerolog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		submit:  submit,
		log:     log.With().Str("component", "watcher").Str("dir", dir).Logger(),
		Settle:  DefaultSettle,
		pending: make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done. Files already in the directory are not
// submitted.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info().Msg("watching for new files")

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !watchable(ev.Name) {
		return
	}

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.schedule(ctx, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.Settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := w.submit(ctx, path); err != nil {
			w.log.Error().Err(err).Str("path", path).Msg("submit failed")
			return
		}
		w.log.Info().Str("path", path).Msg("file submitted")
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func watchable(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	f := format.Detect(path)
	return f.IsRenderable() || f.HasDetections()
}
