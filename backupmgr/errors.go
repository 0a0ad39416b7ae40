package backupmgr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrSourceMissing     = errors.New("source missing")
	ErrDestinationExists = errors.New("destination already exists")
	ErrInvalidSave       = errors.New("invalid save name")
)

// Stage names the snapshot pipeline step that failed.
type Stage string

const (
	StageCopy    Stage = "copy"
	StageArchive Stage = "archive"
	StageCleanup Stage = "cleanup"
)

// SnapshotError is returned by BackupWriter when one pipeline stage fails.
type SnapshotError struct {
	Save  string
	Stage Stage
	Err   error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot of %s failed during %s: %v", e.Save, e.Stage, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }
