package models

import (
	"strings"
	"time"
)

// DocumentKind classifies an upload as PDF or IMG.
type DocumentKind string

const (
	KindPDF DocumentKind = "PDF"
	KindIMG DocumentKind = "IMG"
)

// KindFromMIME classifies an upload: anything whose MIME type mentions pdf
// is a PDF, everything else is treated as an image.
func KindFromMIME(mime string) DocumentKind {
	if strings.Contains(strings.ToLower(mime), "pdf") {
		return KindPDF
	}
	return KindIMG
}

// Document is the metadata row of an uploaded file. The bytes live in
// object storage under StorageKey.
type Document struct {
	ID         int64        `json:"id"`
	RequestID  int64        `json:"request_id"`
	FileName   string       `json:"file_name"`
	FileURL    string       `json:"file_url"`
	FileType   DocumentKind `json:"file_type"`
	StorageKey string       `json:"-"`
	UploadedAt time.Time    `json:"uploaded_at"`
}
