package domain

import (
	"strings"
	"time"
)

// Session pairs one viewer context with the files uploaded to it
type Session struct {
	ID        string    `json:"sessionId"`
	Files     []File    `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}

// File is one uploaded file. JSON names match what the browser clients read.
type File struct {
	ID           string    `json:"id"`
	StoredName   string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploadedAt"`

	// Content store key, "<sessionId>/<storedName>"
	ContentLocation string `json:"-"`
}

// IsImage reports whether the file is in the image family
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// AcceptedMediaType reports whether uploads of this media type are allowed
func AcceptedMediaType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/")
}

// Rejection names a file refused during upload and why
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ArchiveStats summarizes one archive stream
type ArchiveStats struct {
	Entries int
	Skipped int
	Bytes   int64
}
