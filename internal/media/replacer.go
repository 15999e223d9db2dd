package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapstream/backend/internal/models"
	"github.com/snapstream/backend/internal/storage"
)

// ErrUpload indicates the object-storage collaborator failed to produce a
// durable location for an upload. The owning record is never mutated on this
// path.
var ErrUpload = errors.New("media upload failed")

// Object key categories. Keys follow <category>/<epoch-millis>-<filename>.
const (
	CategoryAvatar    = "avatar"
	CategoryCover     = "coverImage"
	CategoryVideo     = "videoFile"
	CategoryThumbnail = "thumbnail"
)

// Upload carries one incoming file part.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UserMediaStore is the slice of the user repository the replacer needs.
type UserMediaStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	CommitAvatar(ctx context.Context, userID, oldURL, newURL string) error
	CommitCoverImage(ctx context.Context, userID, oldURL, newURL string) error
}

// VideoMediaStore is the slice of the video repository the replacer needs.
type VideoMediaStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	CommitThumbnail(ctx context.Context, id, oldURL, newURL string) error
}

// Replacer orchestrates the upload-then-swap-then-cleanup protocol for
// profile media and video publication. The commit point is the conditional
// record update: an upload whose commit fails is deleted again, so storage
// never accumulates objects the record disagrees with, and a committed swap
// deletes the replaced object best-effort.
type Replacer struct {
	blobs  storage.BlobStore
	users  UserMediaStore
	videos VideoMediaStore
	logger *slog.Logger

	// NowFunc overrides the key timestamp source in tests.
	NowFunc func() time.Time
}

// NewReplacer constructs a media replacement orchestrator.
func NewReplacer(blobs storage.BlobStore, users UserMediaStore, videos VideoMediaStore, logger *slog.Logger) *Replacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replacer{
		blobs:  blobs,
		users:  users,
		videos: videos,
		logger: logger,
	}
}

// UploadRegistrationImages stores the optional avatar and cover image for an
// account that does not exist yet. If the cover upload fails after the avatar
// was stored, the avatar is rolled back so registration fails cleanly.
func (r *Replacer) UploadRegistrationImages(ctx context.Context, avatar, cover *Upload) (string, string, error) {
	var avatarLocation, avatarKey string

	if avatar != nil {
		avatarKey = r.objectKey(CategoryAvatar, avatar.Name)
		location, err := r.blobs.Put(ctx, avatarKey, avatar.Content, avatar.Size, avatar.ContentType)
		if err != nil || location == "" {
			return "", "", fmt.Errorf("%w: %s: %v", ErrUpload, avatarKey, err)
		}
		avatarLocation = location
	}

	var coverLocation string
	if cover != nil {
		coverKey := r.objectKey(CategoryCover, cover.Name)
		location, err := r.blobs.Put(ctx, coverKey, cover.Content, cover.Size, cover.ContentType)
		if err != nil || location == "" {
			if avatarKey != "" {
				r.cleanup(avatarKey)
			}
			return "", "", fmt.Errorf("%w: %s: %v", ErrUpload, coverKey, err)
		}
		coverLocation = location
	}

	return avatarLocation, coverLocation, nil
}

// ReplaceAvatar swaps the user's avatar for the uploaded image and returns the
// updated record.
func (r *Replacer) ReplaceAvatar(ctx context.Context, userID string, upload Upload) (models.User, error) {
	return r.replaceUserImage(ctx, userID, CategoryAvatar, upload)
}

// ReplaceCoverImage swaps the user's cover image for the uploaded image and
// returns the updated record.
func (r *Replacer) ReplaceCoverImage(ctx context.Context, userID string, upload Upload) (models.User, error) {
	return r.replaceUserImage(ctx, userID, CategoryCover, upload)
}

func (r *Replacer) replaceUserImage(ctx context.Context, userID, category string, upload Upload) (models.User, error) {
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	oldLocation := user.Avatar
	if category == CategoryCover {
		oldLocation = user.CoverImage
	}

	key := r.objectKey(category, upload.Name)
	newLocation, err := r.blobs.Put(ctx, key, upload.Content, upload.Size, upload.ContentType)
	if err != nil || newLocation == "" {
		return models.User{}, fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}

	commit := r.users.CommitAvatar
	if category == CategoryCover {
		commit = r.users.CommitCoverImage
	}

	if err := commit(ctx, userID, oldLocation, newLocation); err != nil {
		// The record was not updated; remove the orphaned upload before
		// surfacing the failure.
		r.cleanup(key)
		return models.User{}, fmt.Errorf("commit %s: %w", category, err)
	}

	if oldLocation != "" {
		r.cleanup(keyFromLocation(oldLocation))
	}

	if category == CategoryCover {
		user.CoverImage = newLocation
	} else {
		user.Avatar = newLocation
	}
	return user, nil
}

// PublishVideo uploads the media and thumbnail parts and creates the video
// record. Nothing is created unless both uploads succeed; a failure after the
// first upload deletes the already-stored sibling.
func (r *Replacer) PublishVideo(ctx context.Context, ownerID, title, description string, durationSeconds float64, video, thumbnail Upload) (models.Video, error) {
	videoKey := r.objectKey(CategoryVideo, video.Name)
	videoLocation, err := r.blobs.Put(ctx, videoKey, video.Content, video.Size, video.ContentType)
	if err != nil || videoLocation == "" {
		return models.Video{}, fmt.Errorf("%w: %s: %v", ErrUpload, videoKey, err)
	}

	thumbKey := r.objectKey(CategoryThumbnail, thumbnail.Name)
	thumbLocation, err := r.blobs.Put(ctx, thumbKey, thumbnail.Content, thumbnail.Size, thumbnail.ContentType)
	if err != nil || thumbLocation == "" {
		r.cleanup(videoKey)
		return models.Video{}, fmt.Errorf("%w: %s: %v", ErrUpload, thumbKey, err)
	}

	now := r.now()
	record := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		VideoURL:    videoLocation,
		Thumbnail:   thumbLocation,
		Duration:    FormatDuration(durationSeconds),
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.videos.Create(ctx, record); err != nil {
		r.cleanup(videoKey)
		r.cleanup(thumbKey)
		return models.Video{}, fmt.Errorf("create video record: %w", err)
	}

	return record, nil
}

// ReplaceThumbnail swaps a video's thumbnail for the uploaded image and
// returns the updated record.
func (r *Replacer) ReplaceThumbnail(ctx context.Context, videoID string, upload Upload) (models.Video, error) {
	video, err := r.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	oldLocation := video.Thumbnail

	key := r.objectKey(CategoryThumbnail, upload.Name)
	newLocation, err := r.blobs.Put(ctx, key, upload.Content, upload.Size, upload.ContentType)
	if err != nil || newLocation == "" {
		return models.Video{}, fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}

	if err := r.videos.CommitThumbnail(ctx, videoID, oldLocation, newLocation); err != nil {
		r.cleanup(key)
		return models.Video{}, fmt.Errorf("commit thumbnail: %w", err)
	}

	if oldLocation != "" {
		r.cleanup(keyFromLocation(oldLocation))
	}

	video.Thumbnail = newLocation
	return video, nil
}

// DeleteObjects removes stored objects best-effort, for record deletion paths.
func (r *Replacer) DeleteObjects(locations ...string) {
	for _, location := range locations {
		if location == "" {
			continue
		}
		r.cleanup(keyFromLocation(location))
	}
}

// cleanup deletes an object best-effort. Failures are logged, never surfaced:
// a leftover object is preferable to failing a request that already committed.
func (r *Replacer) cleanup(key string) {
	if key == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.blobs.Delete(ctx, key); err != nil {
		r.logger.Error("delete stored object", "key", key, "error", err)
	}
}

func (r *Replacer) objectKey(category, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
	if name == "" || name == "." {
		name = "upload"
	}
	return fmt.Sprintf("%s/%d-%s", category, r.now().UnixMilli(), name)
}

func (r *Replacer) now() time.Time {
	if r.NowFunc != nil {
		return r.NowFunc()
	}
	return time.Now().UTC()
}

// keyFromLocation recovers the object key (category/filename) from a stored
// public location.
func keyFromLocation(location string) string {
	trimmed := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		trimmed = u.Path
	}
	trimmed = strings.Trim(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return trimmed
	}
	return path.Join(parts[len(parts)-2], parts[len(parts)-1])
}

// FormatDuration renders a duration in seconds as M:SS, or H:MM:SS from one
// hour up.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	remaining := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, remaining)
	}
	return fmt.Sprintf("%d:%02d", minutes, remaining)
}
