package backupmgr

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, root string) *BackupManager {
	t.Helper()
	settings := Settings{
		WatchedRoot:  root,
		GracePeriod:  200 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
	}
	m := NewBackupManager(NewBackupConfig(settings), nopLogger(), NewMetrics())
	t.Cleanup(m.Shutdown)
	return m
}

// waitForArchives polls the backup directory until it holds n archives.
func waitForArchives(t *testing.T, dir string, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		matches, _ := filepath.Glob(filepath.Join(dir, "*"+ArchiveExtension))
		if len(matches) >= n {
			return matches
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d archive(s) in %s", n, dir)
	return nil
}

func TestBackupManager_StartBacksUpSettledSave(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "World"), map[string]string{"a.txt": "v1"})
	m := newTestManager(t, root)

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	backups := m.Config().Settings.BackupDirectory()
	if info, err := os.Stat(backups); err != nil || !info.IsDir() {
		t.Fatalf("backup directory not created: %v", err)
	}

	// A burst of writes, as a game saving several files.
	writeTree(t, filepath.Join(root, "World"), map[string]string{"a.txt": "v2", "sub/b.txt": "bravo"})
	writeTree(t, filepath.Join(root, "World"), map[string]string{"sub/b.txt": "bravo2"})

	archives := waitForArchives(t, backups, 1)
	if !strings.HasPrefix(filepath.Base(archives[0]), "World ") {
		t.Errorf("archive name = %q, want World <timestamp>.zip", filepath.Base(archives[0]))
	}
	got := readArchive(t, archives[0])
	want := map[string]string{"a.txt": "v2", "sub/b.txt": "bravo2"}
	if !equalMaps(got, want) {
		t.Errorf("archive entries = %v, want %v", got, want)
	}

	// Writing the archive must not feed back into the watcher.
	time.Sleep(600 * time.Millisecond)
	matches, _ := filepath.Glob(filepath.Join(backups, "*"))
	if len(matches) != 1 {
		t.Errorf("backup directory = %v, want a single archive", matches)
	}
}

func TestBackupManager_NewSaveDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	writeTree(t, filepath.Join(root, "Fresh"), map[string]string{"deep/nested/f.txt": "f"})

	archives := waitForArchives(t, m.Config().Settings.BackupDirectory(), 1)
	if !strings.HasPrefix(filepath.Base(archives[0]), "Fresh ") {
		t.Errorf("archive name = %q", archives[0])
	}
}

func TestBackupManager_RecordsChangesRightAfterStart(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "World"), map[string]string{"old.txt": "old"})
	m := newTestManager(t, root)

	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	writeTree(t, filepath.Join(root, "World"), map[string]string{"a.txt": "alpha"})

	archives := waitForArchives(t, m.Config().Settings.BackupDirectory(), 1)
	got := readArchive(t, archives[0])
	if got["a.txt"] != "alpha" {
		t.Errorf("archive entries = %v, want a.txt", got)
	}
}

func TestBackupManager_SnapshotsAreSerialized(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "World"), map[string]string{"a.txt": "alpha"})
	m := newTestManager(t, root)

	// Stand in for a watcher callback that is mid-backup.
	m.backupMu.Lock()
	done := make(chan error, 1)
	go func() {
		_, err := m.BackupNow("World")
		done <- err
	}()

	select {
	case err := <-done:
		m.backupMu.Unlock()
		t.Fatalf("BackupNow() returned while another snapshot was running: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.backupMu.Unlock()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("BackupNow() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("BackupNow() did not finish after the running snapshot ended")
	}
}

func TestBackupManager_ShutdownBeforeRootExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-yet")
	m := newTestManager(t, root)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Start() }()

	time.Sleep(50 * time.Millisecond)
	m.Shutdown()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("Start() error = nil, want cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Shutdown")
	}
	// Shutdown is safe to repeat.
	m.Shutdown()
}

func TestBackupManager_StartRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"saves": "not a dir"})
	m := newTestManager(t, filepath.Join(dir, "saves"))

	if err := m.Start(); err == nil {
		t.Fatal("Start() error = nil, want error")
	}
}

func TestBackupManager_BackupNow(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "World"), map[string]string{"a.txt": "alpha"})
	m := newTestManager(t, root)

	archive, err := m.BackupNow("World")
	if err != nil {
		t.Fatalf("BackupNow() error = %v", err)
	}
	if got := readArchive(t, archive); got["a.txt"] != "alpha" {
		t.Errorf("archive entries = %v", got)
	}

	for _, name := range []string{"", "..", "a/b", m.Config().Settings.BackupFolderName} {
		if _, err := m.BackupNow(name); !errors.Is(err, ErrInvalidSave) {
			t.Errorf("BackupNow(%q) error = %v, want ErrInvalidSave", name, err)
		}
	}
	if _, err := m.BackupNow("Missing"); !errors.Is(err, ErrSourceMissing) {
		t.Errorf("BackupNow(Missing) error = %v, want ErrSourceMissing", err)
	}
}

func TestBackupManager_ListBackups(t *testing.T) {
	root := t.TempDir()
	m := newTestManager(t, root)
	backups := m.Config().Settings.BackupDirectory()

	if _, err := m.ListBackups(0); err == nil {
		t.Error("ListBackups() error = nil before backup dir exists")
	}

	writeTree(t, backups, map[string]string{
		"World 2024-01-15 10-30-00.zip":    "zip1",
		"World 2024-01-15 11-00-00.zip":    "zip2",
		"My Base 2024-01-14 09-00-00.zip":  "zip3",
		"World 2024-01-15 12-00-00/a.txt":  "leftover",
		"notes.txt":                        "ignored",
		"garbage.zip":                      "ignored",
	})

	all, err := m.ListBackups(0)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("ListBackups() returned %d entries, want 4: %+v", len(all), all)
	}
	if !all[0].Leftover || all[0].SaveName != "World" {
		t.Errorf("newest entry = %+v, want World leftover", all[0])
	}
	if all[1].SaveName != "World" || all[1].Taken.Hour() != 11 || all[1].Size != 4 {
		t.Errorf("second entry = %+v", all[1])
	}
	if all[3].SaveName != "My Base" {
		t.Errorf("oldest entry = %+v, want My Base", all[3])
	}

	limited, err := m.ListBackups(2)
	if err != nil {
		t.Fatalf("ListBackups(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListBackups(2) returned %d entries", len(limited))
	}
}

func TestParseSnapshotName(t *testing.T) {
	layout := "2006-01-02 15-04-05"
	save, taken, ok := parseSnapshotName("My Big World 2024-01-15 10-30-00", layout)
	if !ok || save != "My Big World" || taken.Minute() != 30 {
		t.Errorf("parseSnapshotName() = %q, %v, %v", save, taken, ok)
	}
	if _, _, ok := parseSnapshotName("World", layout); ok {
		t.Error("parseSnapshotName(World) ok = true, want false")
	}
}
