package backupmgr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// BackupWriter produces one compressed snapshot per call. It keeps no state between calls.
type BackupWriter struct {
	settings Settings
	copier   Copier
	clock    Clock
	log      Logger
	metrics  *Metrics
}

// NewBackupWriter returns a writer for the given settings. A nil clock means RealClock.
func NewBackupWriter(settings Settings, log Logger, clock Clock, metrics *Metrics) *BackupWriter {
	if clock == nil {
		clock = RealClock{}
	}
	return &BackupWriter{
		settings: settings,
		clock:    clock,
		log:      log,
		metrics:  metrics,
	}
}

// BackupSave copies savePath into the backup directory, compresses the copy and removes it.
// It returns the path of the written archive.
func (b *BackupWriter) BackupSave(savePath string) (string, error) {
	started := b.clock.Now()
	saveName := filepath.Base(filepath.Clean(savePath))
	dest := filepath.Join(b.settings.BackupDirectory(), b.settings.SnapshotName(saveName, started))
	archivePath := dest + ArchiveExtension

	b.log.Trace("copying save", "save", savePath, "dest", dest)
	if err := b.copier.CopyDirectory(savePath, dest); err != nil {
		return "", b.fail(saveName, StageCopy, err)
	}

	b.log.Trace("compressing snapshot", "snapshot", dest, "archive", archivePath)
	if err := createArchive(dest, archivePath); err != nil {
		return "", b.fail(saveName, StageArchive, err)
	}

	b.log.Trace("removing raw snapshot", "snapshot", dest)
	if err := os.RemoveAll(dest); err != nil {
		return archivePath, b.fail(saveName, StageCleanup, fmt.Errorf("removing %s: %w", dest, err))
	}

	var size int64
	if info, err := os.Stat(archivePath); err == nil {
		size = info.Size()
	}
	b.metrics.snapshotDone(b.clock.Now().Sub(started), size)
	b.log.Info("backup written", "archive", archivePath)
	return archivePath, nil
}

func (b *BackupWriter) fail(save string, stage Stage, err error) error {
	b.metrics.snapshotFailed(stage)
	var se *SnapshotError
	if errors.As(err, &se) {
		return err
	}
	return &SnapshotError{Save: save, Stage: stage, Err: err}
}
