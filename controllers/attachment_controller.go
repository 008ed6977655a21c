package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/studentbridge-api/services"
	"github.com/kendall-kelly/studentbridge-api/utils"
)

// multipartOverhead is the allowance for form boundaries and part headers
const multipartOverhead = 64 * 1024

// SignedURLRequest asks for a temporary download link to a stored attachment
type SignedURLRequest struct {
	Path       string `json:"path" binding:"required"`
	TTLSeconds int64  `json:"ttl_seconds" binding:"gte=0"`
}

// AttachmentController uploads message attachments and issues download links
type AttachmentController struct {
	attachments *services.AttachmentService
	maxBytes    int64
}

// NewAttachmentController creates an AttachmentController
func NewAttachmentController(attachments *services.AttachmentService, maxBytes int64) *AttachmentController {
	return &AttachmentController{attachments: attachments, maxBytes: maxBytes}
}

// Upload handles POST /api/v1/attachments (multipart field "file")
func (ac *AttachmentController) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	// reject oversized bodies before multipart parsing buffers them
	limit := ac.maxBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		respondError(c, utils.NewFileTooLargeError(ac.maxBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, utils.NewFileTooLargeError(ac.maxBytes))
			return
		}
		respondErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "A file is required")
		return
	}
	if err := utils.ValidateAttachmentHeader(fileHeader, ac.maxBytes); err != nil {
		respondError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_FILE", "Could not read uploaded file")
		return
	}
	defer file.Close()

	attachment, err := ac.attachments.Upload(c.Request.Context(), user.ID, services.FileUpload{
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, attachment)
}

// SignedURL handles POST /api/v1/attachments/signed-url
func (ac *AttachmentController) SignedURL(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req SignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	url, err := ac.attachments.SignedURL(c.Request.Context(), req.Path, ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"url": url})
}
