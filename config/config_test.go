package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SteamServerUI/SaveSnapshotManager/backupmgr"
)

func TestWriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "savesnapshots.yaml")

	want := Default("/games/saves")
	want.GracePeriod = "5s"
	if err := Write(path, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestWrite_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "savesnapshots.yaml")
	if err := os.WriteFile(path, []byte("watched_root: /keep\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Write(path, Default("/other")); err == nil {
		t.Fatal("Write() error = nil, want error for existing file")
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "/keep") {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "savesnapshots.yaml")
	content := "watched_root: /from/file\ngrace_period: 10s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAVESNAP_GRACE_PERIOD", "2s")
	t.Setenv("SAVESNAP_BACKUP_FOLDER", "Snapshots")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.WatchedRoot != "/from/file" {
		t.Errorf("WatchedRoot = %q, want /from/file", f.WatchedRoot)
	}
	if f.GracePeriod != "2s" {
		t.Errorf("GracePeriod = %q, want 2s", f.GracePeriod)
	}
	if f.BackupFolder != "Snapshots" {
		t.Errorf("BackupFolder = %q, want Snapshots", f.BackupFolder)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestResolve(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		s, err := File{WatchedRoot: "/saves"}.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if s.BackupDirectory() != filepath.Join("/saves", "Safebackups") {
			t.Errorf("BackupDirectory() = %q", s.BackupDirectory())
		}
		if s.GracePeriod != 30*time.Second {
			t.Errorf("GracePeriod = %s, want 30s", s.GracePeriod)
		}
	})

	t.Run("parses durations", func(t *testing.T) {
		s, err := File{WatchedRoot: "/saves", GracePeriod: "500ms", PollInterval: "100ms"}.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if s.GracePeriod != 500*time.Millisecond || s.PollInterval != 100*time.Millisecond {
			t.Errorf("durations = %s/%s, want 500ms/100ms", s.GracePeriod, s.PollInterval)
		}
	})

	t.Run("empty watched root is a configuration error", func(t *testing.T) {
		_, err := File{}.Resolve()
		if !errors.Is(err, backupmgr.ErrInvalidSettings) {
			t.Errorf("Resolve() error = %v, want ErrInvalidSettings", err)
		}
	})

	t.Run("bad duration is a configuration error", func(t *testing.T) {
		_, err := File{WatchedRoot: "/saves", PollInterval: "soon"}.Resolve()
		if !errors.Is(err, backupmgr.ErrInvalidSettings) {
			t.Errorf("Resolve() error = %v, want ErrInvalidSettings", err)
		}
	})
}
