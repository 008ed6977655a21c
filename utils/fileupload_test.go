package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileHeader creates a mock multipart.FileHeader for testing
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	// Create a buffer to write our multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// Create form file
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	// Parse the multipart form
	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)
	defer form.RemoveAll()

	if len(form.File["file"]) > 0 {
		fileHeader := form.File["file"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateAttachmentHeader_Success(t *testing.T) {
	content := []byte("%PDF-1.4 fake")
	fileHeader := createTestFileHeader("brief.pdf", int64(len(content)), content)
	require.NotNil(t, fileHeader)

	assert.NoError(t, ValidateAttachmentHeader(fileHeader, MaxAttachmentSize))
}

func TestValidateAttachmentHeader_ExactlyAtLimit(t *testing.T) {
	content := []byte("x")
	fileHeader := createTestFileHeader("limit.bin", MaxAttachmentSize, content)
	require.NotNil(t, fileHeader)

	assert.NoError(t, ValidateAttachmentHeader(fileHeader, MaxAttachmentSize))
}

func TestValidateAttachmentHeader_FileTooLarge(t *testing.T) {
	// 6MB is above the 5MB ceiling
	content := []byte("x")
	fileHeader := createTestFileHeader("large.mov", 6*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateAttachmentHeader(fileHeader, MaxAttachmentSize)
	require.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Equal(t, "File size exceeds maximum allowed size of 5 MB", fileErr.Message)
}

func TestValidateAttachmentHeader_Missing(t *testing.T) {
	err := ValidateAttachmentHeader(nil, MaxAttachmentSize)
	require.Error(t, err)
	assert.Equal(t, "MISSING_FILE", err.(*FileUploadError).Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces and symbols", "my résumé (final).docx", "my_r_sum_final_.docx"},
		{"directory traversal", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\photo.png`, "photo.png"},
		{"hidden file", ".env", "env"},
		{"only symbols", "???", "file"},
		{"empty", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got := SanitizeFilename(long)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, ".pdf"))
}

func TestDisplayFilename(t *testing.T) {
	assert.Equal(t, "my résumé.pdf", DisplayFilename("uploads/my résumé.pdf"))
	assert.Equal(t, "file", DisplayFilename(""))
}

func TestBuildStorageKey(t *testing.T) {
	at := time.UnixMilli(1767312000123)
	key := BuildStorageKey(42, at, "ab12cd34", "Pitch Deck.pdf")
	assert.Equal(t, "42/1767312000123-ab12cd34-Pitch_Deck.pdf", key)
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{
		Code:    "TEST_CODE",
		Message: "Test error message",
	}

	assert.Equal(t, "Test error message", err.Error())
}
