package backupmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

/*
The BackupManager ties a SaveWatcher to a BackupWriter. Each instance is independent with its own
config and context. The watch loop only starts when Start() is called. Multiple instances
can coexist but may conflict if configured with overlapping directories.
*/

var (
	initTimeout      = 90 * time.Minute
	initPollInterval = 2500 * time.Millisecond
)

// Initialize waits until the watched root exists, then ensures the backup directory exists.
// It returns a channel that signals when initialization is complete or an error occurs.
func (m *BackupManager) Initialize() <-chan error {
	identifier := m.config.Identifier
	settings := m.config.Settings
	result := make(chan error, 1)

	go func() {
		defer close(result)
		deadline := time.Now().Add(initTimeout)

		// Wait for the watched root to exist
		for {
			stat, err := os.Stat(settings.WatchedRoot)
			if err == nil {
				if !stat.IsDir() {
					result <- fmt.Errorf("%s watched path %s is not a directory", identifier, settings.WatchedRoot)
					return
				}
				m.log.Debug("found save directory", "root", settings.WatchedRoot)
				break
			}
			if !os.IsNotExist(err) {
				result <- fmt.Errorf("%s error checking save directory %s: %w", identifier, settings.WatchedRoot, err)
				return
			}
			if time.Now().After(deadline) {
				result <- fmt.Errorf("%s timeout waiting for save directory %s to be created", identifier, settings.WatchedRoot)
				return
			}

			m.log.Debug("waiting for save folder to be created by the game", "root", settings.WatchedRoot)
			select {
			case <-m.ctx.Done():
				result <- fmt.Errorf("%s I have to go, the config was likely changed: %w", identifier, m.ctx.Err())
				return
			case <-time.After(initPollInterval):
			}
		}

		if err := os.MkdirAll(settings.BackupDirectory(), os.ModePerm); err != nil {
			result <- fmt.Errorf("%s error creating backup directory %s: %w", identifier, settings.BackupDirectory(), err)
			return
		}
		m.log.Debug("backup directory ready", "dir", settings.BackupDirectory())

		result <- nil
	}()

	return result
}

// Start waits for initialization and launches the watch loop in the background.
func (m *BackupManager) Start() error {
	if err := m.config.Settings.Validate(); err != nil {
		return err
	}

	m.log.Debug("waiting for save folder initialization")
	if err := <-m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize backup manager: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("backup manager already started")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("backup manager shut down before start: %w", m.ctx.Err())
	}

	// Subscribe before returning so no change made after Start is missed.
	fw, err := m.watcher.subscribe()
	if err != nil {
		return err
	}
	m.started = true

	m.wg.Add(1)
	go m.watchSaves(fw)

	m.log.Info("Backup manager instance started", "root", m.config.Settings.WatchedRoot)
	return nil
}

// watchSaves runs the watcher until the manager context is cancelled.
func (m *BackupManager) watchSaves(fw *fsWatcher) {
	defer m.wg.Done()

	m.log.Debug("Starting save watcher...")
	defer m.log.Info("Save watcher stopped")

	m.watcher.serve(m.ctx, fw, m.backupSave)
}

// backupSave writes one snapshot. Watcher callbacks and BackupNow share backupMu,
// so two snapshots never run at the same time.
func (m *BackupManager) backupSave(savePath string) error {
	_, err := m.backupSaveTo(savePath)
	return err
}

func (m *BackupManager) backupSaveTo(savePath string) (string, error) {
	m.backupMu.Lock()
	defer m.backupMu.Unlock()
	return m.writer.BackupSave(savePath)
}

// BackupNow snapshots one save immediately, bypassing the grace period.
// saveName is a directory name directly below the watched root.
func (m *BackupManager) BackupNow(saveName string) (string, error) {
	if saveName == "" || saveName != filepath.Base(saveName) || saveName == "." || saveName == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidSave, saveName)
	}
	if saveName == m.config.Settings.BackupFolderName {
		return "", fmt.Errorf("%w: %q is the backup folder", ErrInvalidSave, saveName)
	}
	if err := os.MkdirAll(m.config.Settings.BackupDirectory(), os.ModePerm); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	return m.backupSaveTo(filepath.Join(m.config.Settings.WatchedRoot, saveName))
}

// ListBackups returns information about available snapshots, newest first.
// limit: number of recent snapshots to return (0 for all)
func (m *BackupManager) ListBackups(limit int) ([]Snapshot, error) {
	snapshots, err := listSnapshots(m.config.Settings)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Taken.After(snapshots[j].Taken)
	})

	if limit > 0 && limit < len(snapshots) {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

// Config returns the configuration the manager was built with.
func (m *BackupManager) Config() BackupConfig {
	return m.config
}

// Shutdown stops the watch loop and waits for an in-flight backup to finish.
func (m *BackupManager) Shutdown() {
	m.log.Info("Shutting down backup manager...")

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.log.Debug("Context canceled for backup manager")
	}
	m.mu.Unlock()

	m.log.Debug("Waiting for background tasks to complete...")
	m.wg.Wait()

	m.log.Info("Backup manager shut down completely")
}

// NewBackupManager creates a new BackupManager instance
func NewBackupManager(cfg BackupConfig, log Logger, metrics *Metrics) *BackupManager {
	ctx, cancel := context.WithCancel(context.Background())

	cfg.Settings = cfg.Settings.WithDefaults()
	log = withPrefix(log, cfg.Identifier)

	return &BackupManager{
		config:  cfg,
		log:     log,
		metrics: metrics,
		watcher: NewSaveWatcher(cfg.Settings, log, nil, metrics),
		writer:  NewBackupWriter(cfg.Settings, log, nil, metrics),
		ctx:     ctx,
		cancel:  cancel,
	}
}
