package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"wecare_donations_backend/internal/config"
)

// App wraps the Firebase Admin SDK app; only Cloud Storage is used.
type App struct {
	app    *firebase.App
	logger *zap.Logger
}

// NewApp initializes the Firebase Admin SDK. Without a service account key path
// the SDK falls back to Application Default Credentials.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseServiceAccountKeyPath != "" {
		cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
		opts = append(opts, option.WithCredentialsFile(cleanPath))
	}

	conf := &firebase.Config{StorageBucket: cfg.FirebaseStorageBucket}
	if cfg.FirebaseProjectID != "" {
		conf.ProjectID = cfg.FirebaseProjectID
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.", zap.String("bucket", cfg.FirebaseStorageBucket))
	return &App{app: app, logger: logger}, nil
}

// Bucket returns a handle to the named Cloud Storage bucket, or the
// configured default bucket when name is empty.
func (a *App) Bucket(ctx context.Context, name string) (*gcs.BucketHandle, error) {
	client, err := a.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firebase Storage client: %w", err)
	}
	var bucket *gcs.BucketHandle
	if name == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(name)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening bucket %q: %w", name, err)
	}
	return bucket, nil
}
