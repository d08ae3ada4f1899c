// Package storage defines the audio library file-system abstraction.
package storage

import "time"

// BlobInfo describes a stored audio payload.
type BlobInfo struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// Provider is the interface for audio blob operations. All refs are
// relative to the library root.
type Provider interface {
	// List returns info for every audio blob in the library.
	List() ([]BlobInfo, error)
	// Read returns the raw bytes of the blob at ref.
	Read(ref string) ([]byte, error)
	// Write atomically stores content under ref and returns its size.
	Write(ref string, content []byte) (int64, error)
	// Delete removes the blob at ref.
	Delete(ref string) error
}
