package scenarios

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals changes anywhere in a scenarios directory, one level deep.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan struct{}
}

// Watch creates dir if needed and starts watching it and its current
// sub-directories. New sub-directories are added as they appear.
func Watch(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scenarios dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = fw.Add(filepath.Join(dir, e.Name()))
		}
	}

	w := &Watcher{fs: fw, changes: make(chan struct{}, 1)}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fs.Add(event.Name)
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

// Changes delivers at most one pending signal per burst. It is closed
// after Close.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
