// Package storage persists the knowledge document inside the data directory.
package storage

// Provider is the interface for data directory file operations. Paths are
// relative to the data directory.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
}
