// Package dictstore keeps named, serialized FSTs in a single bbolt file.
// Every blob is stored next to a metadata record carrying its checksum, and
// reads verify both before returning.
package dictstore

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"GoFST/internal/fst"
	"GoFST/internal/storage"
)

var (
	ErrNotFound    = errors.New("dictionary not found")
	ErrInvalidName = errors.New("invalid dictionary name")
)

var (
	blobBucket = []byte("fst")
	metaBucket = []byte("meta")
)

// Options configures a Store.
type Options struct {
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration

	// ReadOnly opens the database without write access.
	ReadOnly bool

	// Logger for store events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout: time.Second,
	}
}

// Store is a bbolt-backed dictionary store. It is safe for concurrent use.
type Store struct {
	db     *bolt.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the store at path.
func Open(path string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.ReadOnly {
		if err := storage.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("dictstore: create dir: %w", err)
		}
	}

	db, err := bolt.Open(path, storage.FilePerm, &bolt.Options{
		Timeout:  opts.Timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("dictstore: open %s: %w", path, err)
	}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, name := range [][]byte{blobBucket, metaBucket} {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("dictstore: init buckets: %w", err)
		}
	}

	logger.Debug("dictstore opened", "path", path, "read_only", opts.ReadOnly)
	return &Store{db: db, path: path, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Put stores blob under name, replacing any previous dictionary. The blob
// checksum and size in meta are filled in here.
func (s *Store) Put(name string, blob []byte, meta Meta) error {
	if name == "" {
		return ErrInvalidName
	}
	meta.Name = name
	meta.SizeBytes = int64(len(blob))
	meta.BlobChecksum = storage.ComputeChecksum(blob)
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	metaData, err := MarshalMeta(&meta)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(blobBucket).Put([]byte(name), blob); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte(name), metaData)
	})
	if err != nil {
		return fmt.Errorf("dictstore: put %q: %w", name, err)
	}
	s.logger.Info("dictionary stored",
		"name", name,
		"bytes", len(blob),
		"terms", meta.TermCount,
		"checksum", meta.BlobChecksum,
	)
	return nil
}

// Get returns the blob and metadata stored under name. The blob is a copy
// and remains valid after the call.
func (s *Store) Get(name string) ([]byte, *Meta, error) {
	var blob []byte
	var meta *Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := buckets(tx)
		if err != nil {
			return err
		}
		raw := b[1].Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if meta, err = UnmarshalMeta(raw); err != nil {
			return err
		}
		data := b[0].Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %q has metadata but no blob", ErrNotFound, name)
		}
		blob = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dictstore: get: %w", err)
	}
	if err := storage.VerifyChecksum(blob, meta.BlobChecksum); err != nil {
		return nil, nil, fmt.Errorf("dictstore: get %q: %w", name, err)
	}
	return blob, meta, nil
}

// Stat returns the metadata of name without reading its blob.
func (s *Store) Stat(name string) (*Meta, error) {
	var meta *Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := buckets(tx)
		if err != nil {
			return err
		}
		raw := b[1].Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		meta, err = UnmarshalMeta(raw)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dictstore: stat: %w", err)
	}
	return meta, nil
}

// Delete removes name. Deleting a missing dictionary returns ErrNotFound.
func (s *Store) Delete(name string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		metas := tx.Bucket(metaBucket)
		if metas.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if err := metas.Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(blobBucket).Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("dictstore: delete: %w", err)
	}
	s.logger.Info("dictionary deleted", "name", name)
	return nil
}

// List returns the metadata of every dictionary, ordered by name.
func (s *Store) List() ([]Meta, error) {
	var out []Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := buckets(tx)
		if err != nil {
			return err
		}
		c := b[1].Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			m, err := UnmarshalMeta(v)
			if err != nil {
				return err
			}
			out = append(out, *m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dictstore: list: %w", err)
	}
	return out, nil
}

// buckets returns the blob and meta buckets. A read-only store opened on a
// fresh file has neither.
func buckets(tx *bolt.Tx) ([2]*bolt.Bucket, error) {
	b := [2]*bolt.Bucket{tx.Bucket(blobBucket), tx.Bucket(metaBucket)}
	if b[0] == nil || b[1] == nil {
		return b, ErrNotFound
	}
	return b, nil
}

// PutFST serializes f and stores it under name. outputs names the output
// algebra for readers.
func PutFST[T any](s *Store, name, outputs string, f *fst.FST[T], termCount int64) error {
	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		return fmt.Errorf("dictstore: serialize %q: %w", name, err)
	}
	return s.Put(name, buf.Bytes(), Meta{
		InputType: f.InputType().String(),
		Outputs:   outputs,
		TermCount: termCount,
		NodeCount: f.NodeCount(),
		ArcCount:  f.ArcCount(),
	})
}

// GetFST loads the FST stored under name.
func GetFST[T any](s *Store, name string, outputs fst.Outputs[T]) (*fst.FST[T], *Meta, error) {
	blob, meta, err := s.Get(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := fst.Load[T](bytes.NewReader(blob), outputs)
	if err != nil {
		return nil, nil, fmt.Errorf("dictstore: decode %q: %w", name, err)
	}
	return f, meta, nil
}
