package backupmgr

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SaveWatcher debounces change notifications per save and reports each save once
// it has been quiet for the grace period.
type SaveWatcher struct {
	settings Settings
	clock    Clock
	log      Logger
	metrics  *Metrics
	pending  *pendingChanges
}

// NewSaveWatcher returns a watcher for settings. A nil clock means RealClock.
func NewSaveWatcher(settings Settings, log Logger, clock Clock, metrics *Metrics) *SaveWatcher {
	if clock == nil {
		clock = RealClock{}
	}
	return &SaveWatcher{
		settings: settings,
		clock:    clock,
		log:      log,
		metrics:  metrics,
		pending:  newPendingChanges(),
	}
}

// Watch subscribes to native change notifications below the watched root and calls
// onSettled once per settled save until ctx is cancelled. It only returns early if the
// subscription cannot be set up.
func (w *SaveWatcher) Watch(ctx context.Context, onSettled SettledFunc) error {
	fw, err := w.subscribe()
	if err != nil {
		return err
	}
	w.serve(ctx, fw, onSettled)
	return nil
}

// subscribe starts watching the save tree. Changes are buffered from the moment it
// returns, so callers that need every change recorded subscribe before handing off
// to serve.
func (w *SaveWatcher) subscribe() (*fsWatcher, error) {
	fw, err := newFsWatcher(w.settings, w.clock, w.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create save watcher: %w", err)
	}
	return fw, nil
}

// serve runs the debounce loop on an existing subscription and closes it on return.
func (w *SaveWatcher) serve(ctx context.Context, fw *fsWatcher, onSettled SettledFunc) {
	defer fw.close()

	w.log.Debug("watching saves", "root", w.settings.WatchedRoot, "backups", w.settings.BackupDirectory())
	w.run(ctx, fw.events, fw.errors, onSettled)
}

// run records notifications on one goroutine and polls on the calling one.
func (w *SaveWatcher) run(ctx context.Context, events <-chan Notification, errs <-chan error, onSettled SettledFunc) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.consume(ctx, events, errs)
	}()
	defer wg.Wait()

	w.poll(ctx, onSettled)
}

func (w *SaveWatcher) consume(ctx context.Context, events <-chan Notification, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.Record(n)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Error("save watcher error", "error", err)
		}
	}
}

// Record registers a change for n.Path, resetting its settle clock.
// Paths inside the backup directory are ignored; the return value reports whether
// the notification was recorded.
func (w *SaveWatcher) Record(n Notification) bool {
	if w.settings.IsBackupPath(n.Path) {
		w.log.Trace("ignoring change in backup directory", "path", n.Path)
		return false
	}
	at := n.Timestamp
	if at.IsZero() {
		at = w.clock.Now()
	}
	size := w.pending.touch(n.Path, at)
	w.metrics.setPending(size)
	w.log.Trace("save changed", "save", n.Path, "at", at)
	return true
}

// poll ticks every PollInterval until ctx is done.
func (w *SaveWatcher) poll(ctx context.Context, onSettled SettledFunc) {
	ticker := time.NewTicker(w.settings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("save watcher stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			w.tick(ctx, onSettled)
		}
	}
}

// tick drains every settled save and runs onSettled for each, in path order.
// Entries are removed before their callback runs, so a change arriving during a
// backup starts a fresh pending entry.
func (w *SaveWatcher) tick(ctx context.Context, onSettled SettledFunc) {
	if ctx.Err() != nil {
		return
	}

	settled, remaining := w.pending.drainSettled(w.clock.Now(), w.settings.GracePeriod)
	w.metrics.setPending(remaining)

	for _, save := range settled {
		if ctx.Err() != nil {
			w.log.Debug("abandoning settled save on shutdown", "save", save)
			return
		}
		w.settle(save, onSettled)
	}
}

// settle runs one callback, keeping errors and panics from ending the loop.
func (w *SaveWatcher) settle(save string, onSettled SettledFunc) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("backup callback panicked", "save", save, "panic", r)
		}
	}()

	w.log.Debug("save settled", "save", save)
	if err := onSettled(save); err != nil {
		w.log.Error("backup failed", "save", save, "error", err)
	}
}
