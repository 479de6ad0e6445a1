package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

// FsyncDir makes the entries of the directory at path durable.
func FsyncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fsync dir %s: %w", path, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("fsync dir %s: %w", path, err)
	}
	return nil
}

// AtomicWrite replaces the file at path with whatever write produces. The
// content goes to a temporary sibling that is synced and renamed over path,
// so readers see either the old file or the complete new one.
func AtomicWrite(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err = write(bw); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("atomic write %s: flush: %w", path, err)
	}
	if err = tmp.Chmod(FilePerm); err != nil {
		return fmt.Errorf("atomic write %s: chmod: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write %s: fsync: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}
	return FsyncDir(dir)
}

// AtomicWriteFile atomically replaces the file at path with data.
func AtomicWriteFile(path string, data []byte) error {
	return AtomicWrite(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirPerm)
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
