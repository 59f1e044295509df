// Package storage implements the blob side of the file subsystem: raw
// uploaded content written to a local directory, one file per record,
// named after the record's unique name.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore is the interface handlers use to persist and remove uploaded
// content. Save returns the number of bytes written.
type BlobStore interface {
	Save(name string, src io.Reader) (int64, error)
	Remove(name string) error
	Path(name string) string
}

// DiskStore stores blobs as plain files under a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed and returns a store
// rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Path returns the on-disk location of a blob. The name is reduced to its
// base component so a crafted filename cannot escape the root.
func (s *DiskStore) Path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Save writes src to the blob's path, truncating any existing content, and
// returns the number of bytes written.
func (s *DiskStore) Save(name string, src io.Reader) (int64, error) {
	dst, err := os.Create(s.Path(name))
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(s.Path(name))
		return 0, err
	}
	return n, nil
}

// Remove deletes a blob. Removing a blob that does not exist is an error,
// mirroring the metadata side where deleting an absent record fails.
func (s *DiskStore) Remove(name string) error {
	return os.Remove(s.Path(name))
}
