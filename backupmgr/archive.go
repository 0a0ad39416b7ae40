package backupmgr

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// createArchive compresses the contents of srcDir into a new zip at archivePath.
// Entry names are relative to srcDir. Empty directories get an explicit "dir/" entry.
// A partially written archive is removed on failure.
func createArchive(srcDir, archivePath string) (err error) {
	f, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, archivePath)
		}
		return fmt.Errorf("creating archive %s: %w", archivePath, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			_ = os.Remove(archivePath)
		}
	}()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				return nil
			}
			hdr := &zip.FileHeader{Name: name + "/", Method: zip.Store, Modified: info.ModTime()}
			hdr.SetMode(info.Mode())
			_, err = zw.CreateHeader(hdr)
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}
		return addFile(zw, path, name, info)
	})
	if err != nil {
		return fmt.Errorf("writing archive %s: %w", archivePath, err)
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive %s: %w", archivePath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", archivePath, err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string, info fs.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	return nil
}
