package backupmgr

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsWatcher turns fsnotify events under the watched root into save notifications.
// fsnotify is not recursive, so every directory below the root is added on start
// and new ones as they are created. The backup directory is never watched.
type fsWatcher struct {
	w         *fsnotify.Watcher
	settings  Settings
	clock     Clock
	log       Logger
	events    chan Notification
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

func newFsWatcher(settings Settings, clock Clock, log Logger) (*fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	fw := &fsWatcher{
		w:        w,
		settings: settings,
		clock:    clock,
		log:      log,
		events:   make(chan Notification, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
	}

	if err := fw.addTree(settings.WatchedRoot); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", settings.WatchedRoot, err)
	}

	go fw.loop()
	return fw, nil
}

// addTree watches dir and every directory below it, skipping the backup directory.
func (fw *fsWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if fw.settings.IsBackupPath(p) {
			return filepath.SkipDir
		}
		if err := fw.w.Add(p); err != nil {
			return err
		}
		fw.log.Trace("watching directory", "dir", p)
		return nil
	})
}

func (fw *fsWatcher) loop() {
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			fw.handle(ev)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

func (fw *fsWatcher) handle(ev fsnotify.Event) {
	if ev.Op&relevantOps == 0 || fw.settings.IsBackupPath(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := fw.addTree(ev.Name); err != nil {
				fw.log.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
			}
		}
	}

	save, ok := savePathFor(fw.settings.WatchedRoot, ev.Name)
	if !ok {
		return
	}
	if save == filepath.Clean(ev.Name) {
		// Top-level entry: only directories are saves.
		info, err := os.Stat(save)
		if err != nil || !info.IsDir() {
			return
		}
	}

	n := Notification{Path: save, Timestamp: fw.clock.Now()}
	select {
	case fw.events <- n:
	case <-fw.done:
	}
}

func (fw *fsWatcher) close() {
	fw.closeOnce.Do(func() {
		close(fw.done)
		fw.w.Close()
	})
}

// savePathFor maps a path below root to the save directory that owns it,
// i.e. root joined with the first path component.
func savePathFor(root, p string) (string, bool) {
	root = filepath.Clean(root)
	rel, err := filepath.Rel(root, filepath.Clean(p))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	return filepath.Join(root, first), true
}
