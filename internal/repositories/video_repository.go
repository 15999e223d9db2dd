package repositories

import (
	"context"

	"github.com/snapstream/backend/internal/models"
)

// VideoRepository exposes data access for published videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string) error
	// CommitThumbnail persists a new thumbnail location only while the record
	// still references oldURL.
	CommitThumbnail(ctx context.Context, id, oldURL, newURL string) error
	Delete(ctx context.Context, id string) error
	TogglePublish(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, ownerID, titleQuery string, limit, offset int) ([]models.Video, error)
}
