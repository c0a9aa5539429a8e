package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Handler is called once per accepted creation event, on the watcher's own
// goroutine. The next event is not read until it returns.
type Handler func(ctx context.Context, path string)

type Options struct {
	// GracePeriod is how long to wait after a file appears before handing it
	// to the handler, so the writer can finish.
	GracePeriod time.Duration
	// Accept filters regular files; nil accepts everything.
	Accept func(path string) bool
}

type Watcher struct {
	root    string
	opts    Options
	log     *logrus.Logger
	watcher *fsnotify.Watcher
}

// New watches root and every directory below it.
func New(root string, opts Options, log *logrus.Logger) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory %s is not a directory", root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		opts:    opts,
		log:     log,
		watcher: fw,
	}

	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.Warnf("Error accessing %s, skipping: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.log.Debugf("Watching %s", path)
		return nil
	})
}

// WatchList returns the directories currently being watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

// Run drains filesystem events until ctx is cancelled. A handler that is
// already running when ctx is cancelled is allowed to finish; it receives a
// context that is not cancelled with ctx.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	w.log.Infof("Monitoring %s. Waiting for new images...", w.root)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Stopping folder monitor")
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, handle)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Errorf("Filesystem event queue overflowed, some files were missed: %v", err)
				continue
			}
			w.log.Warnf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, handle Handler) {
	if !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		w.log.Debugf("Created path %s disappeared: %v", event.Name, err)
		return
	}

	if info.IsDir() {
		if err := w.addRecursive(event.Name); err != nil {
			w.log.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			return
		}
		// A directory moved or copied in arrives with its files already in
		// place and no create event for any of them.
		for _, path := range w.filesUnder(event.Name) {
			w.handleFile(ctx, path, handle)
		}
		return
	}

	w.handleFile(ctx, event.Name, handle)
}

func (w *Watcher) handleFile(ctx context.Context, path string, handle Handler) {
	if w.opts.Accept != nil && !w.opts.Accept(path) {
		w.log.Debugf("Ignoring %s", path)
		return
	}

	if w.opts.GracePeriod > 0 {
		time.Sleep(w.opts.GracePeriod)
	}

	handle(context.WithoutCancel(ctx), path)
}

// filesUnder lists the regular files below dir in lexical order.
func (w *Watcher) filesUnder(dir string) []string {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warnf("Error accessing %s, skipping: %v", path, err)
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		w.log.Warnf("Failed to scan new directory %s: %v", dir, err)
	}
	return files
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
