// Package storage provides persistence for uploaded media files.
package storage

import (
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/models"
)

// FileInfo describes an uploaded file.
type FileInfo struct {
	// Filename is the client-supplied file name.
	Filename string

	// ContentType is the declared MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64
}

// Storage defines the interface for uploaded file persistence.
type Storage interface {
	// SaveFile stores an uploaded file and returns its reference name.
	SaveFile(file multipart.File, info FileInfo) (string, error)

	// OpenFile opens a stored file by its reference name.
	OpenFile(ref string) (io.ReadSeekCloser, error)

	// DeleteFile removes a stored file by its reference name.
	DeleteFile(ref string) error
}

// UploadPolicy holds the size and type limits for uploads.
type UploadPolicy struct {
	// MaxImageSize is the maximum image upload size in bytes.
	MaxImageSize int64

	// MaxVideoSize is the maximum video upload size in bytes.
	MaxVideoSize int64

	// AllowedImageTypes is the list of accepted image file extensions.
	AllowedImageTypes []string

	// AllowedVideoTypes is the list of accepted video file extensions.
	AllowedVideoTypes []string
}

// NewUploadPolicy builds an upload policy from the application configuration.
func NewUploadPolicy(cfg *config.Config) UploadPolicy {
	return UploadPolicy{
		MaxImageSize:      cfg.Storage.MaxImageSize,
		MaxVideoSize:      cfg.Storage.MaxVideoSize,
		AllowedImageTypes: cfg.Storage.AllowedImageTypes,
		AllowedVideoTypes: cfg.Storage.AllowedVideoTypes,
	}
}

// Validate checks an upload against the policy for the given request kind.
func (p UploadPolicy) Validate(kind models.RequestKind, info FileInfo) error {
	if info.Size == 0 {
		return models.ErrEmptyUpload
	}

	var maxSize int64
	var allowed []string

	switch kind {
	case models.RequestKindImage:
		maxSize = p.MaxImageSize
		allowed = p.AllowedImageTypes
	case models.RequestKindVideo:
		maxSize = p.MaxVideoSize
		allowed = p.AllowedVideoTypes
	default:
		return models.ErrInvalidRequestKind
	}

	if maxSize > 0 && info.Size > maxSize {
		return models.ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(info.Filename))
	if ext == "" || !slices.Contains(allowed, ext) {
		return models.ErrUnsupportedFileType
	}

	return nil
}

// MaxSize returns the policy size limit for the given request kind.
func (p UploadPolicy) MaxSize(kind models.RequestKind) int64 {
	switch kind {
	case models.RequestKindImage:
		return p.MaxImageSize
	case models.RequestKindVideo:
		return p.MaxVideoSize
	default:
		return 0
	}
}
