package api

import (
	"github.com/starford/murmur/internal/finalize"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/process"
)

// RenameRequest is the body for renaming a recording.
type RenameRequest struct {
	Name string `json:"name"`
}

// FavouriteRequest is the body for toggling the favourite flag.
type FavouriteRequest struct {
	Favourite bool `json:"favourite"`
}

// SaveRequest is the body for naming a finished capture.
type SaveRequest struct {
	Name string `json:"name"`
}

// RecordingListResponse wraps a recording listing.
type RecordingListResponse struct {
	Recordings []models.Recording `json:"recordings"`
	Total      int                `json:"total"`
}

// CaptureStatus describes the live capture session.
type CaptureStatus struct {
	State     string          `json:"state"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Chunks    int             `json:"chunks"`
	Bytes     int64           `json:"bytes"`
	Dialog    finalize.Intent `json:"dialog"`
}

// UploadResponse is returned after a successful audio upload.
type UploadResponse struct {
	Recording models.Recording `json:"recording"`
}

// StatusResponse reports the pipeline stage of one recording.
type StatusResponse = process.Status
