package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const mockPresignDateFormat = "20060102T150405Z"

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of S3 key to file content
	contentTypes  map[string]string
	putCalls      int
	mu            sync.RWMutex

	// FailUploads makes PutObject return an error
	FailUploads bool
	// FailPresign makes GetPresignedURL return an error
	FailPresign bool
	// Now is the clock used to stamp presigned URLs
	Now func() time.Time
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
		contentTypes:  make(map[string]string),
		Now:           time.Now,
	}
}

// PutObject simulates uploading a file to S3
func (m *MockS3Service) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	m.putCalls++
	fail := m.FailUploads
	m.mu.Unlock()

	if fail {
		return errors.New("mock S3: upload rejected")
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	m.mu.Lock()
	m.uploadedFiles[key] = content
	m.contentTypes[key] = contentType
	m.mu.Unlock()

	return nil
}

// GetPresignedURL returns a fake presigned URL carrying its signing time and lifetime
func (m *MockS3Service) GetPresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, exists := m.uploadedFiles[key]
	fail := m.FailPresign
	m.mu.RUnlock()

	if fail {
		return "", errors.New("mock S3: presign unavailable")
	}
	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", key)
	}

	q := url.Values{}
	q.Set("X-Amz-Date", m.Now().UTC().Format(mockPresignDateFormat))
	q.Set("X-Amz-Expires", strconv.Itoa(int(ttl/time.Second)))
	return fmt.Sprintf("https://mock-bucket.s3.us-east-1.amazonaws.com/%s?%s", key, q.Encode()), nil
}

// Resolve fetches the object behind a presigned URL as S3 would at time at
func (m *MockS3Service) Resolve(rawURL string, at time.Time) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	signedAt, err := time.Parse(mockPresignDateFormat, u.Query().Get("X-Amz-Date"))
	if err != nil {
		return nil, fmt.Errorf("missing signature date: %w", err)
	}
	seconds, err := strconv.Atoi(u.Query().Get("X-Amz-Expires"))
	if err != nil {
		return nil, fmt.Errorf("missing expiry: %w", err)
	}
	if at.After(signedAt.Add(time.Duration(seconds) * time.Second)) {
		return nil, errors.New("AccessDenied: Request has expired")
	}

	key := strings.TrimPrefix(u.Path, "/")
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.uploadedFiles[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return content, nil
}

// PutCalls returns how many times PutObject was invoked
func (m *MockS3Service) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

// ContentType returns the content type an object was stored with
func (m *MockS3Service) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[key]
	return exists
}
