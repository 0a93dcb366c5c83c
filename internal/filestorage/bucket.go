package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// BucketStore keeps files in a Firebase (Cloud Storage) bucket.
type BucketStore struct {
	bucket        *gcs.BucketHandle
	bucketName    string
	publicBaseURL string
	logger        *zap.Logger
}

func NewBucketStore(bucket *gcs.BucketHandle, bucketName, publicBaseURL string, logger *zap.Logger) *BucketStore {
	return &BucketStore{bucket: bucket, bucketName: bucketName, publicBaseURL: publicBaseURL, logger: logger}
}

func (s *BucketStore) Save(ctx context.Context, fileHeader *multipart.FileHeader, subDir string) (string, error) {
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

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = detectContentType(fileHeader)
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload %s: %w", name, err)
	}

	s.logger.Debug("Object uploaded", zap.String("bucket", s.bucketName), zap.String("object", name))
	return name, nil
}

func (s *BucketStore) Delete(ctx context.Context, relativePath string) error {
	clean, err := cleanRelativePath(relativePath)
	if err != nil {
		return err
	}
	if err := s.bucket.Object(clean).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", clean, err)
	}
	return nil
}

func (s *BucketStore) URL(relativePath string) string {
	if relativePath == "" {
		return ""
	}
	if s.publicBaseURL != "" {
		return joinURL(s.publicBaseURL, relativePath)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, relativePath)
}
