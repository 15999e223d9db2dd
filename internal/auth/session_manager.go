package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/snapstream/backend/internal/models"
	"github.com/snapstream/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials indicates the supplied password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenReused indicates a refresh token that no longer occupies the
	// user's slot: it was consumed by an earlier rotation or revoked.
	ErrTokenReused = errors.New("refresh token is expired or used")
)

// CredentialStore is the slice of the user repository the session manager needs.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Manager orchestrates login, logout and refresh over the token issuer and the
// credential store. Only the most recently persisted refresh token is valid;
// rotation writes the new token into the user's slot before any pair is handed
// to a caller, so a failed persist never leaks usable tokens.
type Manager struct {
	tokens *TokenIssuer
	users  CredentialStore
}

// NewManager constructs a session manager.
func NewManager(tokens *TokenIssuer, users CredentialStore) *Manager {
	if tokens == nil || users == nil {
		panic("auth: token issuer and credential store must not be nil")
	}
	return &Manager{tokens: tokens, users: users}
}

// Login verifies credentials and starts a fresh session, overwriting whatever
// refresh token the slot previously held.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	user, err := m.users.FindByLogin(ctx, identifier)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.issuePair(user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return user, tokens, nil
}

// Logout clears the refresh-token slot. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	return m.users.ClearRefreshToken(ctx, userID)
}

// Refresh exchanges a refresh token for a new pair. The incoming token must
// verify cryptographically and exactly match the stored slot; a token consumed
// by a prior rotation fails with ErrTokenReused even before it expires. The
// slot swap is a compare-and-swap, so concurrent refreshes with the same token
// cannot both win.
func (m *Manager) Refresh(ctx context.Context, incoming string) (models.SessionTokens, error) {
	if incoming == "" {
		return models.SessionTokens{}, ErrInvalidToken
	}

	userID, err := m.tokens.Verify(incoming, KindRefresh)
	if err != nil {
		return models.SessionTokens{}, ErrInvalidToken
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidToken
		}
		return models.SessionTokens{}, err
	}

	if user.RefreshToken != incoming {
		return models.SessionTokens{}, ErrTokenReused
	}

	tokens, err := m.issuePair(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.RotateRefreshToken(ctx, user.ID, incoming, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrStaleWrite) {
			return models.SessionTokens{}, ErrTokenReused
		}
		return models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return tokens, nil
}

// ChangePassword verifies the old password and stores a hash of the new one.
// The refresh-token slot is left untouched.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return m.users.UpdatePassword(ctx, userID, string(hashed))
}

// VerifyAccess validates an access token and returns the authenticated user id.
func (m *Manager) VerifyAccess(token string) (string, error) {
	return m.tokens.Verify(token, KindAccess)
}

func (m *Manager) issuePair(userID string) (models.SessionTokens, error) {
	access, accessExp, err := m.tokens.IssueAccess(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refresh, refreshExp, err := m.tokens.IssueRefresh(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
