package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/firebase"
)

// Sub-directories used for stored objects.
const (
	DirDonations = "donations"
	DirAvatars   = "avatars"
)

// Store persists uploaded files. Paths returned by Save are relative and
// slash-separated, e.g. "donations/<uuid>.jpg".
type Store interface {
	Save(ctx context.Context, fileHeader *multipart.FileHeader, subDir string) (string, error)
	Delete(ctx context.Context, relativePath string) error
	URL(relativePath string) string
}

// NewStore builds the Store selected by STORAGE_DRIVER.
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverLocal:
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, logger)
	case config.StorageDriverFirebase:
		ctx := context.Background()
		app, err := firebase.NewApp(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		bucket, err := app.Bucket(ctx, cfg.FirebaseStorageBucket)
		if err != nil {
			return nil, err
		}
		return NewBucketStore(bucket, cfg.FirebaseStorageBucket, cfg.PublicBaseURL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// ImageRules bounds what an uploaded image may be.
type ImageRules struct {
	MaxCount int
	MaxBytes int64
}

// RulesFromConfig reads the upload limits from configuration.
func RulesFromConfig(cfg *config.Config) ImageRules {
	return ImageRules{MaxCount: cfg.MaxUploadImages, MaxBytes: cfg.MaxImageSizeBytes()}
}

// ValidateImages checks count, size and MIME type of a set of uploads.
// field names the form field in the returned VALIDATION_ERROR.
func (r ImageRules) ValidateImages(field string, files []*multipart.FileHeader, required bool) error {
	if required && len(files) == 0 {
		return common.FieldError(field, "At least one image is required.")
	}
	if r.MaxCount > 0 && len(files) > r.MaxCount {
		return common.FieldError(field, fmt.Sprintf("At most %d images may be uploaded.", r.MaxCount))
	}
	for _, fh := range files {
		if err := r.ValidateImage(field, fh); err != nil {
			return err
		}
	}
	return nil
}

// ValidateImage checks a single upload against the size limit and image/* MIME types.
func (r ImageRules) ValidateImage(field string, fh *multipart.FileHeader) error {
	if fh == nil {
		return common.FieldError(field, "File is missing.")
	}
	if r.MaxBytes > 0 && fh.Size > r.MaxBytes {
		return common.FieldError(field, fmt.Sprintf("%s exceeds the maximum size of %d bytes.", fh.Filename, r.MaxBytes))
	}
	if !strings.HasPrefix(detectContentType(fh), "image/") {
		return common.FieldError(field, fmt.Sprintf("%s is not an image.", fh.Filename))
	}
	return nil
}

// detectContentType prefers the declared Content-Type and sniffs the content otherwise.
func detectContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	f, err := fh.Open()
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return http.DetectContentType(buf[:n])
}

// objectName builds a unique name under subDir, keeping the original extension.
func objectName(fh *multipart.FileHeader, subDir string) (string, error) {
	cleanSubDir := path.Clean(filepath.ToSlash(subDir))
	if cleanSubDir == "." || strings.HasPrefix(cleanSubDir, "..") || strings.HasPrefix(cleanSubDir, "/") {
		return "", fmt.Errorf("invalid subDir path %q", subDir)
	}

	extension := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	if extension == "" {
		switch ct := detectContentType(fh); {
		case strings.HasPrefix(ct, "image/jpeg"):
			extension = ".jpg"
		case strings.HasPrefix(ct, "image/png"):
			extension = ".png"
		case strings.HasPrefix(ct, "image/gif"):
			extension = ".gif"
		case strings.HasPrefix(ct, "image/webp"):
			extension = ".webp"
		default:
			return "", fmt.Errorf("unsupported file type or missing extension: %s", ct)
		}
	}
	return path.Join(cleanSubDir, uuid.New().String()+extension), nil
}

// cleanRelativePath rejects paths that would escape the storage root.
func cleanRelativePath(relativePath string) (string, error) {
	if relativePath == "" {
		return "", fmt.Errorf("relative path cannot be empty")
	}
	clean := path.Clean(filepath.ToSlash(relativePath))
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid file path %q", relativePath)
	}
	return clean, nil
}

func joinURL(base, relativePath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(relativePath, "/")
}
