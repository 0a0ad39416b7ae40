package backupmgr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// listSnapshots collects the archives in the backup directory. Raw snapshot
// directories left behind by a failed archive step are reported as leftovers.
func listSnapshots(settings Settings) ([]Snapshot, error) {
	dir := settings.BackupDirectory()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("backup dir doesn't seem to exist (yet). It is created once the save folder appears: %w", err)
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	var snapshots []Snapshot
	for _, e := range entries {
		name := e.Name()
		leftover := e.IsDir()
		base := name
		if !leftover {
			if !strings.HasSuffix(name, ArchiveExtension) {
				continue
			}
			base = strings.TrimSuffix(name, ArchiveExtension)
		}

		saveName, taken, ok := parseSnapshotName(base, settings.TimestampFormat)
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		snap := Snapshot{
			SaveName: saveName,
			Path:     filepath.Join(dir, name),
			Taken:    taken,
			ModTime:  info.ModTime(),
			Leftover: leftover,
		}
		if !leftover {
			snap.Size = info.Size()
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}

// parseSnapshotName splits "<save> <timestamp>" back into its parts. Save names and
// timestamp layouts may both contain spaces, so every split point is tried from the left.
func parseSnapshotName(base, layout string) (string, time.Time, bool) {
	for i := 0; i < len(base); i++ {
		if base[i] != ' ' || i == 0 {
			continue
		}
		taken, err := time.ParseInLocation(layout, base[i+1:], time.Local)
		if err == nil {
			return base[:i], taken, true
		}
	}
	return "", time.Time{}, false
}
