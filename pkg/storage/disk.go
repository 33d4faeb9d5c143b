// Package storage is the object-storage abstraction used for uploaded
// print packages.
//
// Two drivers are provided:
//   - S3 — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//   - Local — local filesystem, for development and tests
//
// Disks are constructed explicitly and injected; there is no process-wide
// default disk.
package storage

import "io"

// Disk is the object-storage driver interface.
type Disk interface {
	// Put writes content to path, creating any parents.
	Put(path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(path string, r io.Reader) error

	// Get returns the full content of the object at path.
	Get(path string) ([]byte, error)

	// Exists reports whether an object exists at path.
	Exists(path string) bool

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
