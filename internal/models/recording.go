// Package models defines the domain types for Murmur.
package models

import (
	"strings"
	"time"
)

// Method is the provenance tag of a recording.
type Method string

const (
	// MethodRecorded marks recordings captured live from the microphone.
	MethodRecorded Method = "recorded"
	// MethodUploaded marks recordings ingested from an existing audio file.
	MethodUploaded Method = "uploaded"
)

// DefaultSuffix is the format suffix applied to captured recordings.
const DefaultSuffix = "wav"

// Recording is the persisted unit of the library.
//
// The audio payload lives in the library blob store; AudioRef is the
// relative path into it and is exclusively owned by this recording until
// the recording is purged.
type Recording struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	AudioRef      string     `json:"audio_ref"`
	Checksum      string     `json:"checksum,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Method        Method     `json:"method"`
	Transcription string     `json:"transcription,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	IsFavourite   bool       `json:"is_favourite"`
	TrashedAt     *time.Time `json:"trashed_at,omitempty"`
	FileSize      int64      `json:"file_size,omitempty"`
	Duration      int64      `json:"duration_ms,omitempty"`
}

// Trashed reports whether the recording is tombstoned.
func (r *Recording) Trashed() bool {
	return r.TrashedAt != nil
}

// SplitTitle splits a title into base name and format suffix.
// The suffix is everything after the last dot; a title without a dot has
// an empty suffix.
func SplitTitle(title string) (base, suffix string) {
	i := strings.LastIndex(title, ".")
	if i < 0 {
		return title, ""
	}
	return title[:i], title[i+1:]
}

// TitleWithSuffix builds a title carrying exactly one format suffix.
// A base that already ends with ".<suffix>" is not doubled.
func TitleWithSuffix(base, suffix string) string {
	base = strings.TrimSpace(base)
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if strings.HasSuffix(base, "."+suffix) {
		return base
	}
	return base + "." + suffix
}

// Retitle replaces the base name of title while preserving its suffix.
// Titles without a suffix fall back to the default one.
func Retitle(title, newBase string) string {
	_, suffix := SplitTitle(title)
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return TitleWithSuffix(newBase, suffix)
}
