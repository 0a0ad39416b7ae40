package backupmgr

import (
	"context"
	"sync"
	"time"
)

const (
	defaultWaitTime         = 30 * time.Second
	defaultPollInterval     = time.Second
	defaultBackupFolderName = "Safebackups"
	defaultTimestampFormat  = "2006-01-02 15-04-05"

	// ArchiveExtension is appended to the snapshot name to form the archive file name.
	ArchiveExtension = ".zip"
)

// Settings holds the resolved values every component works from.
type Settings struct {
	WatchedRoot      string
	BackupFolderName string
	TimestampFormat  string
	GracePeriod      time.Duration
	PollInterval     time.Duration
}

// BackupConfig holds configuration for one backup manager instance
type BackupConfig struct {
	Settings   Settings
	Identifier string
}

// Notification is a single native change report for a save.
type Notification struct {
	Path      string
	Timestamp time.Time
}

// SettledFunc is invoked once per settled save.
type SettledFunc func(savePath string) error

// Snapshot describes one archive (or leftover raw copy) in the backup directory.
type Snapshot struct {
	SaveName string    `json:"saveName"`
	Path     string    `json:"path"`
	Taken    time.Time `json:"taken"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Leftover bool      `json:"leftover,omitempty"`
}

// BackupManager manages backup operations
type BackupManager struct {
	config   BackupConfig
	log      Logger
	metrics  *Metrics
	mu       sync.Mutex
	backupMu sync.Mutex // held while a snapshot is written
	watcher  *SaveWatcher
	writer   *BackupWriter
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
}
