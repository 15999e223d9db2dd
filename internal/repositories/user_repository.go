package repositories

import (
	"context"

	"github.com/snapstream/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)

	// SetRefreshToken overwrites the single refresh-token slot for the user.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken replaces the slot only while it still holds oldToken.
	// Returns ErrStaleWrite when a concurrent rotation won.
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	// ClearRefreshToken empties the slot. Clearing an empty slot is not an error.
	ClearRefreshToken(ctx context.Context, userID string) error

	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)

	// CommitAvatar and CommitCoverImage persist a new media location only while
	// the record still references oldURL, so a replacement that lost a race
	// fails with ErrStaleWrite instead of clobbering a sibling update.
	CommitAvatar(ctx context.Context, userID, oldURL, newURL string) error
	CommitCoverImage(ctx context.Context, userID, oldURL, newURL string) error

	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
	AddWatchHistory(ctx context.Context, userID, videoID string) error
}
