package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/kendall-kelly/studentbridge-api/logger"
	"github.com/kendall-kelly/studentbridge-api/metrics"
	"github.com/kendall-kelly/studentbridge-api/models"
	"github.com/kendall-kelly/studentbridge-api/utils"
)

const (
	// DefaultSignedURLTTL is the lifetime of an attachment link when none is requested
	DefaultSignedURLTTL = time.Hour
	// MaxSignedURLTTL is the longest lifetime S3 accepts for a SigV4 presigned URL
	MaxSignedURLTTL = 7 * 24 * time.Hour

	// attachmentBucketSegment appears in legacy fully-qualified attachment paths
	attachmentBucketSegment = "message-attachments/"
)

// FileUpload is a file received from a client
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// AttachmentService uploads message attachments to the private bucket and
// mints short-lived download links for them
type AttachmentService struct {
	store      S3Interface
	maxBytes   int64
	defaultTTL time.Duration
	log        logger.Logger
	now        func() time.Time
}

// NewAttachmentService creates an attachment broker over store
func NewAttachmentService(store S3Interface, maxBytes int64, defaultTTL time.Duration, log logger.Logger) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = utils.MaxAttachmentSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultSignedURLTTL
	}
	return &AttachmentService{
		store:      store,
		maxBytes:   maxBytes,
		defaultTTL: defaultTTL,
		log:        log.WithFields(map[string]interface{}{"component": "attachments"}),
		now:        time.Now,
	}
}

// Upload stores a file for userID and returns the attachment metadata to put on a message
func (s *AttachmentService) Upload(ctx context.Context, userID uint, file FileUpload) (*models.Attachment, error) {
	if file.Size > s.maxBytes {
		metrics.AttachmentUploads.WithLabelValues("too_large").Inc()
		return nil, s.tooLarge()
	}
	if file.Body == nil {
		return nil, NewValidationError("MISSING_FILE", "A file is required")
	}

	// The declared size comes from the client; never read past the ceiling.
	content, err := io.ReadAll(io.LimitReader(file.Body, s.maxBytes+1))
	if err != nil {
		metrics.AttachmentUploads.WithLabelValues("failed").Inc()
		return nil, NewValidationError("INVALID_FILE", "Could not read uploaded file")
	}
	if int64(len(content)) > s.maxBytes {
		metrics.AttachmentUploads.WithLabelValues("too_large").Inc()
		return nil, s.tooLarge()
	}
	if len(content) == 0 {
		return nil, NewValidationError("EMPTY_FILE", "Uploaded file is empty")
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(content).String()
	}

	key := utils.BuildStorageKey(userID, s.now(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], file.Filename)

	if err := s.store.PutObject(ctx, key, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		metrics.AttachmentUploads.WithLabelValues("failed").Inc()
		s.log.WithError(err).Error("attachment upload failed", map[string]interface{}{"user_id": userID})
		return nil, NewStorageError("upload failed", err)
	}

	metrics.AttachmentUploads.WithLabelValues("stored").Inc()
	s.log.Info("attachment uploaded", map[string]interface{}{"user_id": userID, "path": key, "size": len(content)})

	return &models.Attachment{
		Path: key,
		Name: utils.DisplayFilename(file.Filename),
		Type: contentType,
		Size: int64(len(content)),
	}, nil
}

// SignedURL returns a presigned link to the object at path, valid for ttl.
// ttl <= 0 selects the configured default.
func (s *AttachmentService) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	key := NormalizeStoragePath(path)
	if key == "" {
		return "", NewValidationError("INVALID_PATH", "Attachment path is required")
	}

	switch {
	case ttl <= 0:
		ttl = s.defaultTTL
	case ttl > MaxSignedURLTTL:
		ttl = MaxSignedURLTTL
	}

	var signed string
	err := retryRead(ctx, readRetryAttempts, readRetryDelay, func(ctx context.Context) error {
		u, err := s.store.GetPresignedURL(ctx, key, ttl)
		if err != nil {
			return err
		}
		signed = u
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("signed url failed", map[string]interface{}{"path": key})
		return "", &ServiceError{
			Kind:    KindStorageUnavailable,
			Code:    "SIGNED_URL_FAILED",
			Message: "Failed to create signed URL: " + err.Error(),
		}
	}

	return signed, nil
}

func (s *AttachmentService) tooLarge() *ServiceError {
	fileErr := utils.NewFileTooLargeError(s.maxBytes)
	return NewValidationError(fileErr.Code, fileErr.Message)
}

// NormalizeStoragePath turns either a bare object key or a legacy fully
// qualified path/URL into the bare key. Everything up to and including the
// bucket segment is dropped, as is any query string.
func NormalizeStoragePath(path string) string {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if i := strings.Index(p, "/"+attachmentBucketSegment); i >= 0 {
		p = p[i+len(attachmentBucketSegment)+1:]
	} else if strings.HasPrefix(p, attachmentBucketSegment) {
		p = p[len(attachmentBucketSegment):]
	}
	return strings.TrimLeft(p, "/")
}
