package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxAttachmentSize is 5MB in bytes
	MaxAttachmentSize = 5 * 1024 * 1024
	// maxFilenameLength bounds the sanitized name embedded in storage keys
	maxFilenameLength = 100
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateAttachmentHeader checks the declared size of an uploaded file before it is opened
func ValidateAttachmentHeader(fileHeader *multipart.FileHeader, maxSize int64) error {
	if fileHeader == nil || fileHeader.Filename == "" {
		return &FileUploadError{
			Code:    "MISSING_FILE",
			Message: "A file is required",
		}
	}

	if fileHeader.Size > maxSize {
		return NewFileTooLargeError(maxSize)
	}

	return nil
}

// NewFileTooLargeError builds the size-exceeded error for the given ceiling
func NewFileTooLargeError(maxSize int64) *FileUploadError {
	return &FileUploadError{
		Code:    "FILE_TOO_LARGE",
		Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxSize/(1024*1024)),
	}
}

// SanitizeFilename reduces a client supplied filename to a safe storage key segment
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return "file"
	}

	cleaned := unsafeFilenameChars.ReplaceAllString(base, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return "file"
	}

	if len(cleaned) > maxFilenameLength {
		ext := filepath.Ext(cleaned)
		if len(ext) >= maxFilenameLength {
			ext = ""
		}
		cleaned = cleaned[:maxFilenameLength-len(ext)] + ext
	}
	return cleaned
}

// DisplayFilename returns the name shown to the other participant
func DisplayFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}

// BuildStorageKey returns the object key for an attachment.
// Format: {senderID}/{unixMillis}-{suffix}-{sanitizedName}
func BuildStorageKey(senderID uint, at time.Time, suffix, filename string) string {
	return fmt.Sprintf("%d/%d-%s-%s", senderID, at.UnixMilli(), suffix, SanitizeFilename(filename))
}
