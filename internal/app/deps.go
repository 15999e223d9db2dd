package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/snapstream/backend/internal/auth"
	"github.com/snapstream/backend/internal/config"
	"github.com/snapstream/backend/internal/db"
	"github.com/snapstream/backend/internal/handlers"
	"github.com/snapstream/backend/internal/media"
	"github.com/snapstream/backend/internal/middleware"
	"github.com/snapstream/backend/internal/repositories"
	"github.com/snapstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	issuer := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewManager(issuer, users)

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	return handlers.Dependencies{
		Users:    users,
		Videos:   videos,
		Sessions: sessions,
		Media:    media.NewReplacer(blobs, users, videos, logger),
		Limiter:  middleware.NewClientRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMinio:
		store, err := storage.NewMinioStore(cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("configure minio storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		return store, nil
	case config.BlobBackendS3:
		store, err := storage.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, fmt.Errorf("configure s3 storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
