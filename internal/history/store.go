// Package history persists the historical snapshot table.
package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/banshee-data/wallwatch/internal/fsutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// ErrTableNotFound is returned by Load when nothing has been persisted yet.
var ErrTableNotFound = errors.New("historical table does not exist")

// Loader reads the historical table.
type Loader interface {
	Load(ctx context.Context) (walls.Table, error)
}

// Store is a persisted historical table. Save fully replaces the stored
// table; a failed Save leaves the previous contents in place.
type Store interface {
	Loader
	Save(ctx context.Context, t walls.Table) error
	Close() error
}

// LoadOrEmpty loads the table, treating an absent table as empty.
func LoadOrEmpty(ctx context.Context, s Loader) (walls.Table, bool, error) {
	t, err := s.Load(ctx)
	if errors.Is(err, ErrTableNotFound) {
		return walls.Table{}, false, nil
	}
	if err != nil {
		return walls.Table{}, false, err
	}
	return t, true, nil
}

// CSVStore keeps the table in a CSV file.
type CSVStore struct {
	fs   fsutil.FileSystem
	path string
}

// NewCSVStore returns a store for the CSV file at path.
func NewCSVStore(fsys fsutil.FileSystem, path string) *CSVStore {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &CSVStore{fs: fsys, path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// Load reads and validates the table file.
func (s *CSVStore) Load(ctx context.Context) (walls.Table, error) {
	if err := ctx.Err(); err != nil {
		return walls.Table{}, err
	}
	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return walls.Table{}, ErrTableNotFound
	}
	if err != nil {
		return walls.Table{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	t, err := DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return walls.Table{}, fmt.Errorf("load %s: %w", s.path, err)
	}
	return t, nil
}

// Save atomically replaces the table file.
func (s *CSVStore) Save(ctx context.Context, t walls.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := csvBytes(t)
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}

// Raw returns the stored file bytes for download.
func (s *CSVStore) Raw() ([]byte, error) {
	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTableNotFound
	}
	return data, err
}

// Close is a no-op; the file is not held open between calls.
func (s *CSVStore) Close() error { return nil }
