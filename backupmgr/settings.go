package backupmgr

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackupDirectory is where archives are written. It lives inside the watched root.
func (s Settings) BackupDirectory() string {
	return filepath.Join(s.WatchedRoot, s.BackupFolderName)
}

// WithDefaults returns a copy with every unset field filled in and the watched
// root made absolute, so save paths are absolute too.
func (s Settings) WithDefaults() Settings {
	if strings.TrimSpace(s.WatchedRoot) != "" {
		if abs, err := filepath.Abs(s.WatchedRoot); err == nil {
			s.WatchedRoot = abs
		}
	}
	if s.BackupFolderName == "" {
		s.BackupFolderName = defaultBackupFolderName
	}
	if s.TimestampFormat == "" {
		s.TimestampFormat = defaultTimestampFormat
	}
	if s.GracePeriod == 0 {
		s.GracePeriod = defaultWaitTime
	}
	if s.PollInterval == 0 {
		s.PollInterval = defaultPollInterval
	}
	return s
}

// Validate reports configuration errors. All of them wrap ErrInvalidSettings.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.WatchedRoot) == "" {
		return fmt.Errorf("%w: watched root is empty", ErrInvalidSettings)
	}
	switch name := s.BackupFolderName; {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: backup folder name %q", ErrInvalidSettings, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: backup folder name %q must not contain a path separator", ErrInvalidSettings, name)
	}
	if s.TimestampFormat == "" {
		return fmt.Errorf("%w: timestamp format is empty", ErrInvalidSettings)
	}
	if s.GracePeriod <= 0 {
		return fmt.Errorf("%w: grace period must be positive, got %s", ErrInvalidSettings, s.GracePeriod)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidSettings, s.PollInterval)
	}
	return nil
}

// IsBackupPath reports whether p is the backup directory or anything below it.
func (s Settings) IsBackupPath(p string) bool {
	return isWithin(s.BackupDirectory(), p)
}

// SnapshotName builds "<save> <timestamp>" for a save taken at t.
func (s Settings) SnapshotName(saveName string, t time.Time) string {
	return saveName + " " + t.Format(s.TimestampFormat)
}

// NewBackupConfig returns a BackupConfig with defaults applied and a fresh identifier.
func NewBackupConfig(settings Settings) BackupConfig {
	id := uuid.New()
	return BackupConfig{
		Settings:   settings.WithDefaults(),
		Identifier: "[SS" + id.String()[:6] + "]:",
	}
}

func isWithin(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
