package handlers

import (
	"context"

	"github.com/snapstream/backend/internal/media"
	"github.com/snapstream/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
	AddWatchHistory(ctx context.Context, userID, videoID string) error
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string) error
	Delete(ctx context.Context, id string) error
	TogglePublish(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, ownerID, titleQuery string, limit, offset int) ([]models.Video, error)
}

// SessionManager drives the credential and token lifecycle for the handlers.
type SessionManager interface {
	Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	VerifyAccess(token string) (string, error)
}

// MediaReplacer orchestrates media upload, swap and cleanup.
type MediaReplacer interface {
	UploadRegistrationImages(ctx context.Context, avatar, cover *media.Upload) (string, string, error)
	ReplaceAvatar(ctx context.Context, userID string, upload media.Upload) (models.User, error)
	ReplaceCoverImage(ctx context.Context, userID string, upload media.Upload) (models.User, error)
	PublishVideo(ctx context.Context, ownerID, title, description string, durationSeconds float64, video, thumbnail media.Upload) (models.Video, error)
	ReplaceThumbnail(ctx context.Context, videoID string, upload media.Upload) (models.Video, error)
	DeleteObjects(locations ...string)
}
