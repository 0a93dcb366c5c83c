package filestorage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalURLPrefix is where the HTTP server exposes the upload directory.
const LocalURLPrefix = "/uploads"

// LocalStore keeps files on the local disk under storagePath.
type LocalStore struct {
	storagePath   string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalStore creates the storage directory if needed.
func NewLocalStore(storagePath, publicBaseURL string, logger *zap.Logger) (*LocalStore, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("Local file storage initialized", zap.String("storagePath", storagePath))
	return &LocalStore{storagePath: storagePath, publicBaseURL: publicBaseURL, logger: logger}, nil
}

// Root is the directory served at LocalURLPrefix.
func (s *LocalStore) Root() string {
	return s.storagePath
}

// Save writes the upload to <storagePath>/<subDir>/<uuid><ext>.
func (s *LocalStore) Save(_ context.Context, fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	name, err := objectName(fileHeader, subDir)
	if err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	destinationPath := filepath.Join(s.storagePath, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	dst, err := os.Create(destinationPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	if _, err = io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(destinationPath)
		return "", fmt.Errorf("failed to close file %s: %w", destinationPath, err)
	}

	s.logger.Debug("File saved", zap.String("path", destinationPath))
	return name, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, relativePath string) error {
	clean, err := cleanRelativePath(relativePath)
	if err != nil {
		s.logger.Warn("Rejected file deletion", zap.String("relativePath", relativePath), zap.Error(err))
		return err
	}

	fullPath := filepath.Join(s.storagePath, filepath.FromSlash(clean))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	s.logger.Debug("File deleted", zap.String("path", fullPath))
	return nil
}

// URL returns the public URL of a stored file.
func (s *LocalStore) URL(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	return joinURL(s.publicBaseURL+LocalURLPrefix, relativePath)
}
