// Package config loads the standalone watcher configuration from YAML and the environment.
package config

import (
	"fmt"
	"time"

	"github.com/SteamServerUI/SaveSnapshotManager/backupmgr"
)

// File is the on-disk configuration. Durations are Go duration strings such as "30s".
type File struct {
	WatchedRoot     string `koanf:"watched_root" yaml:"watched_root"`
	BackupFolder    string `koanf:"backup_folder" yaml:"backup_folder"`
	TimestampFormat string `koanf:"timestamp_format" yaml:"timestamp_format"`
	GracePeriod     string `koanf:"grace_period" yaml:"grace_period"`
	PollInterval    string `koanf:"poll_interval" yaml:"poll_interval"`
	LogLevel        string `koanf:"log_level" yaml:"log_level"`
	MetricsAddr     string `koanf:"metrics_addr" yaml:"metrics_addr,omitempty"`
}

// Default returns a File watching root with the stock settings.
func Default(root string) File {
	s := backupmgr.Settings{WatchedRoot: root}.WithDefaults()
	return File{
		WatchedRoot:     root,
		BackupFolder:    s.BackupFolderName,
		TimestampFormat: s.TimestampFormat,
		GracePeriod:     s.GracePeriod.String(),
		PollInterval:    s.PollInterval.String(),
		LogLevel:        "info",
	}
}

// Resolve parses durations, fills defaults and validates the result.
func (f File) Resolve() (backupmgr.Settings, error) {
	grace, err := parseDuration("grace_period", f.GracePeriod)
	if err != nil {
		return backupmgr.Settings{}, err
	}
	poll, err := parseDuration("poll_interval", f.PollInterval)
	if err != nil {
		return backupmgr.Settings{}, err
	}

	s := backupmgr.Settings{
		WatchedRoot:      f.WatchedRoot,
		BackupFolderName: f.BackupFolder,
		TimestampFormat:  f.TimestampFormat,
		GracePeriod:      grace,
		PollInterval:     poll,
	}.WithDefaults()

	if err := s.Validate(); err != nil {
		return backupmgr.Settings{}, err
	}
	return s, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", backupmgr.ErrInvalidSettings, key, err)
	}
	return d, nil
}
