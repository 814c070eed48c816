package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sundayekpa25-ai/projectsandtasks/models"
)

// MaxFileSize caps individual uploads at 100MB.
const MaxFileSize = 100 << 20

// MaxLogoSize caps client logo uploads at 5MB.
const MaxLogoSize = 5 << 20

var (
	ErrFileType     = errors.New("invalid file type")
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
)

var allowedExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".bmp": true,
	".webp": true, ".svg": true, ".pdf": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true, ".txt": true,
	".csv": true, ".zip": true, ".rar": true, ".7z": true, ".tar": true,
	".gz": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
	".flv": true, ".webm": true, ".mp3": true, ".wav": true, ".ogg": true,
	".m4a": true, ".aac": true,
}

var imageExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".bmp": true,
	".webp": true, ".svg": true,
}

// Allowed reports whether a submission file is an accepted media type,
// judged by extension or by an audio/video mime prefix.
func Allowed(originalName, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(originalName))
	if allowedExtensions[ext] {
		return true
	}
	return strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/")
}

// AllowedImage reports whether a file is an accepted logo image.
func AllowedImage(originalName, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(originalName))
	if imageExtensions[ext] {
		return true
	}
	return strings.HasPrefix(mimeType, "image/")
}

// UniqueName builds the on-disk name for an upload, keeping the original
// extension so static serving picks a sensible content type.
func UniqueName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return prefix + "-" + uuid.New().String() + ext
}

// FileStore writes uploads to a directory served at /uploads/.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Save validates and persists one multipart upload, returning its metadata.
// A partially written file is removed before the error is surfaced.
func (s *FileStore) Save(prefix string, header *multipart.FileHeader) (models.Attachment, error) {
	return s.save(prefix, header, MaxFileSize, Allowed)
}

// SaveLogo persists a client logo with the tighter image-only rules.
func (s *FileStore) SaveLogo(header *multipart.FileHeader) (models.Attachment, error) {
	return s.save("client-logo", header, MaxLogoSize, AllowedImage)
}

func (s *FileStore) save(prefix string, header *multipart.FileHeader, maxSize int64, allowed func(string, string) bool) (models.Attachment, error) {
	mimeType := header.Header.Get("Content-Type")
	if !allowed(header.Filename, mimeType) {
		return models.Attachment{}, ErrFileType
	}
	if header.Size > maxSize {
		return models.Attachment{}, ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open upload: %v", err)
	}
	defer src.Close()

	name := UniqueName(prefix, header.Filename)
	dstPath := filepath.Join(s.dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to create file: %v", err)
	}

	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dstPath)
		return models.Attachment{}, fmt.Errorf("failed to store file: %v", err)
	}

	return models.Attachment{
		Filename:     name,
		OriginalName: header.Filename,
		Path:         "/uploads/" + name,
		Size:         written,
		MimeType:     mimeType,
	}, nil
}

// Delete removes a stored file. Missing files are not an error, so cleanup
// after a failed multi-step operation is idempotent.
func (s *FileStore) Delete(att models.Attachment) error {
	if att.Filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, att.Filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %v", att.Filename, err)
	}
	return nil
}

// DeleteAll removes a batch of stored files, keeping going on failure.
func (s *FileStore) DeleteAll(atts []models.Attachment) {
	for _, att := range atts {
		_ = s.Delete(att)
	}
}
