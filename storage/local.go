package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// LocalStore writes uploads under a base directory on the local disk.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the kind subdirectories and returns the store.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	for _, kind := range []Kind{KindAudio, KindImage} {
		dir := filepath.Join(baseDir, string(kind))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// BaseDir returns the directory uploads are written under.
func (s *LocalStore) BaseDir() string {
	return s.baseDir
}

func (s *LocalStore) path(kind Kind, fileName string) string {
	return filepath.Join(s.baseDir, string(kind), fileName)
}

// Save writes the file to disk and returns its public URL path.
func (s *LocalStore) Save(ctx context.Context, kind Kind, fileName string, r io.Reader, size int64, contentType string) (string, error) {
	if err := checkFileName(fileName); err != nil {
		return "", err
	}

	out, err := os.Create(s.path(kind, fileName))
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", fileName, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write file %s: %w", fileName, err)
	}
	return PublicURL(kind, fileName), nil
}

// Open returns the file content and a content type guessed from the
// extension.
func (s *LocalStore) Open(ctx context.Context, kind Kind, fileName string) (io.ReadCloser, string, error) {
	if err := checkFileName(fileName); err != nil {
		return nil, "", err
	}

	f, err := os.Open(s.path(kind, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

// Delete removes the file from disk.
func (s *LocalStore) Delete(ctx context.Context, kind Kind, fileName string) error {
	if err := checkFileName(fileName); err != nil {
		return err
	}

	err := os.Remove(s.path(kind, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to delete file %s: %w", fileName, err)
	}
	return nil
}
