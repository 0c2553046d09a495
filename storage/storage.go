package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind selects the upload category. The values double as directory /
// object-prefix names and as the {type} path segment of the delete
// endpoint.
type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "images"
)

// Size ceilings per kind.
const (
	MaxAudioSize = 50 << 20 // 50MB
	MaxImageSize = 10 << 20 // 10MB
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidExtension = errors.New("file extension is not allowed")
	ErrFileTooLarge     = errors.New("file exceeds the size limit")
	ErrInvalidKind      = errors.New("invalid file type")
	ErrInvalidFileName  = errors.New("invalid file name")
	ErrFileNotFound     = errors.New("file not found")
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ParseKind validates a {type} path segment.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAudio:
		return KindAudio, nil
	case KindImage:
		return KindImage, nil
	default:
		return "", ErrInvalidKind
	}
}

// ValidateUpload checks the original filename and size against the
// allow-list and ceiling for the kind, before anything is written. It
// returns the lower-cased extension.
func ValidateUpload(kind Kind, originalName string, size int64) (string, error) {
	if size == 0 {
		return "", ErrEmptyFile
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	var allowed map[string]bool
	var maxSize int64
	switch kind {
	case KindAudio:
		allowed = audioExtensions
		maxSize = MaxAudioSize
	case KindImage:
		allowed = imageExtensions
		maxSize = MaxImageSize
	default:
		return "", ErrInvalidKind
	}

	if !allowed[ext] {
		return "", ErrInvalidExtension
	}
	if size > maxSize {
		return "", ErrFileTooLarge
	}
	return ext, nil
}

// NewFileName builds a collision-free filename preserving the original
// extension.
func NewFileName(ext string) string {
	return uuid.NewString() + ext
}

// checkFileName rejects names that would escape the kind directory.
func checkFileName(fileName string) error {
	if fileName == "" || fileName != filepath.Base(fileName) ||
		strings.Contains(fileName, "..") {
		return ErrInvalidFileName
	}
	return nil
}

// FileStore stores uploaded files. Implementations: local disk and
// MinIO.
type FileStore interface {
	// Save writes the file and returns its public URL path.
	Save(ctx context.Context, kind Kind, fileName string, r io.Reader, size int64, contentType string) (string, error)
	// Open returns the file content and content type.
	Open(ctx context.Context, kind Kind, fileName string) (io.ReadCloser, string, error)
	// Delete removes the file. Missing files yield ErrFileNotFound.
	Delete(ctx context.Context, kind Kind, fileName string) error
}

// PublicURL is the path uploaded files are served under.
func PublicURL(kind Kind, fileName string) string {
	return "/uploads/" + string(kind) + "/" + fileName
}
