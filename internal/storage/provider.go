// Package storage defines the data-directory file abstraction.
package storage

import "time"

// FileInfo is lightweight metadata for a stored file.
type FileInfo struct {
	Path     string
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for data-directory file operations.
// All paths are relative to the data root.
type Provider interface {
	// List returns metadata for every file under dir whose name ends with ext.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}
