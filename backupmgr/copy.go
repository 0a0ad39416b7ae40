package backupmgr

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Copier duplicates a directory tree. It knows nothing about backups or timing.
type Copier struct{}

// CopyDirectory copies every file and directory under from into to, creating to if needed.
// Existing destination files are never overwritten. A missing source yields ErrSourceMissing
// and leaves no destination artifacts.
func (Copier) CopyDirectory(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, from)
		}
		return fmt.Errorf("stat source %s: %w", from, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", from)
	}

	// Directories still to visit, relative to from. Popped LIFO.
	pending := []string{"."}
	for len(pending) > 0 {
		rel := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		subdirs, err := copyLevel(filepath.Join(from, rel), filepath.Join(to, rel))
		if err != nil {
			return err
		}
		for _, name := range subdirs {
			pending = append(pending, filepath.Join(rel, name))
		}
	}
	return nil
}

// copyLevel creates dst, copies the regular files of src into it and returns the
// names of src's subdirectories.
func copyLevel(src, dst string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", src, err)
	}

	var subdirs []string
	for _, e := range entries {
		switch {
		case e.IsDir():
			subdirs = append(subdirs, e.Name())
		case e.Type().IsRegular():
			if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
				return nil, err
			}
		}
	}
	return subdirs, nil
}

// copyFile copies one regular file, failing if dst already exists.
// The source modification time is carried over.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
