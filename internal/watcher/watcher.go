package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vibebeat/internal/cache"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSettle is how long a new file is left alone before it is handed
	// on, so that copies in progress can finish.
	DefaultSettle = 500 * time.Millisecond
	// DefaultDedupeTTL suppresses repeat events for the same path.
	DefaultDedupeTTL = 10 * time.Second
)

// Handler receives the path of a new audio file.
type Handler func(path string)

// Options configure a Watcher. Zero values select the defaults.
type Options struct {
	Settle    time.Duration
	DedupeTTL time.Duration
}

// Watcher reports audio files dropped into a directory tree.
type Watcher struct {
	dir     string
	isAudio func(string) bool
	onFile  Handler
	settle  time.Duration
	seen    *cache.PathSet
	logger  *logrus.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a watcher for dir. isAudio filters file names and onFile is
// called at most once per path within the dedupe window.
func New(dir string, isAudio func(string) bool, onFile Handler, logger *logrus.Logger, opts Options) *Watcher {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.DedupeTTL <= 0 {
		opts.DedupeTTL = DefaultDedupeTTL
	}
	return &Watcher{
		dir:     dir,
		isAudio: isAudio,
		onFile:  onFile,
		settle:  opts.Settle,
		seen:    cache.NewPathSet(opts.DedupeTTL),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start begins watching. The directory is created when missing.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	if err := w.addDirectory(w.dir); err != nil {
		fsw.Close()
		return err
	}

	w.wg.Add(1)
	go w.watchFiles()

	w.logger.WithField("watch_dir", w.dir).Info("Drop folder watcher started")
	return nil
}

// Stop closes the watcher and waits for pending handlers (idempotent).
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			w.fsw.Close()
		}
		w.wg.Wait()
		w.seen.Close()
	})
}

// addDirectory recursively walks and adds subdirectories to the watcher.
func (w *Watcher) addDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (w *Watcher) watchFiles() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrClosed) {
				w.logger.WithError(err).Error("File watcher error")
			}
		}
	}
}

// handleFileEvent applies filtering and schedules new files.
func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if w.isAudio(event.Name) {
			if w.seen.MarkSeen(event.Name) {
				w.wg.Add(1)
				go w.deliver(event.Name)
			}
			return
		}
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.fsw.Add(event.Name); err != nil {
					w.logger.WithError(err).WithField("directory", event.Name).Warn("Failed to watch new directory")
					return
				}
				w.logger.WithField("directory", event.Name).Info("Watching new directory")
			}
		}
	}
}

// deliver waits for the file to settle and hands it to the handler.
func (w *Watcher) deliver(path string) {
	defer w.wg.Done()

	select {
	case <-time.After(w.settle):
	case <-w.done:
		return
	}

	if _, err := os.Stat(path); err != nil {
		w.logger.WithField("file_path", path).Debug("Dropped file vanished before settling")
		return
	}

	w.logger.WithField("file_path", path).Info("New audio file detected")
	w.onFile(path)
}
