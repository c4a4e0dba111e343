package api

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidAnalysis is returned when an analyze response carries no
	// fee_perspective_analysis payload. It is a hard failure, not a retry signal.
	ErrInvalidAnalysis = errors.New("Invalid analysis data received from server")

	// ErrInvalidResponse is returned when a response body has an unexpected shape.
	ErrInvalidResponse = errors.New("Invalid response format from server")

	// ErrNotPDF is returned by ValidatePDF for non-PDF uploads.
	ErrNotPDF = errors.New("Please upload a PDF file")

	// ErrTitleRequired is returned when an upload has no usable title.
	ErrTitleRequired = errors.New("Please provide both a file and title")
)

// Error is the uniform failure returned by every Client method. Its
// message is the most useful human-readable text available: the
// backend's "error" field, a shape error, or the operation default.
type Error struct {
	Op      string // client operation, e.g. "upload document"
	Status  int    // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ValidatePDF checks that an upload looks like a PDF, either by content
// type or by file extension when the browser sent a generic type.
func ValidatePDF(filename, contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "application/pdf":
		return nil
	case "", "application/octet-stream":
		if strings.EqualFold(filepath.Ext(filename), ".pdf") {
			return nil
		}
	}
	return ErrNotPDF
}

// TitleFromFilename derives a document title from an uploaded file name
// by dropping a trailing .pdf extension.
func TitleFromFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	base := filepath.Base(filepath.ToSlash(name))
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return strings.TrimSpace(base)
}
