package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/snapstream/backend/internal/models"
	"github.com/snapstream/backend/internal/repositories"
)

type fakeCredentialStore struct {
	users map[string]models.User

	failSetRefreshToken bool
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: make(map[string]models.User)}
}

func (s *fakeCredentialStore) add(t *testing.T, id, username, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: id, Username: username, Email: username + "@example.com", Password: string(hashed)}
	s.users[id] = user
	return user
}

func (s *fakeCredentialStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeCredentialStore) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeCredentialStore) SetRefreshToken(_ context.Context, userID, token string) error {
	if s.failSetRefreshToken {
		return errors.New("write failed")
	}
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

func (s *fakeCredentialStore) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) error {
	user, ok := s.users[userID]
	if !ok || user.RefreshToken != oldToken {
		return repositories.ErrStaleWrite
	}
	user.RefreshToken = newToken
	s.users[userID] = user
	return nil
}

func (s *fakeCredentialStore) ClearRefreshToken(_ context.Context, userID string) error {
	if user, ok := s.users[userID]; ok {
		user.RefreshToken = ""
		s.users[userID] = user
	}
	return nil
}

func (s *fakeCredentialStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func newTestManager(store CredentialStore) *Manager {
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewManager(issuer, store)
}

func TestLoginThenRefreshSucceedsExactlyOnce(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "nova", "Secret123")
	manager := newTestManager(store)

	_, tokens, err := manager.Login(context.Background(), "nova", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", tokens)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected rotation to issue a new refresh token")
	}

	// The original token was consumed by the rotation above.
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused got %v", err)
	}

	// The rotated token still works.
	if _, err := manager.Refresh(context.Background(), refreshed.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "nova", "Secret123")
	manager := newTestManager(store)

	if _, _, err := manager.Login(context.Background(), "ghost", "Secret123"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	if _, _, err := manager.Login(context.Background(), "nova", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
}

func TestLoginReturnsNoTokensWhenPersistFails(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "nova", "Secret123")
	store.failSetRefreshToken = true
	manager := newTestManager(store)

	_, tokens, err := manager.Login(context.Background(), "nova", "Secret123")
	if err == nil {
		t.Fatal("expected error when refresh token persist fails")
	}
	if tokens.AccessToken != "" || tokens.RefreshToken != "" {
		t.Fatalf("expected no tokens on persistence failure, got %+v", tokens)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "nova", "Secret123")
	manager := newTestManager(store)

	_, tokens, err := manager.Login(context.Background(), "nova", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := manager.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused after logout, got %v", err)
	}
}

func TestRefreshRejectsInvalidTokens(t *testing.T) {
	store := newFakeCredentialStore()
	manager := newTestManager(store)

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
	if _, err := manager.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	// A well-formed token for a user that no longer exists.
	issuer := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	orphan, _, err := issuer.IssueRefresh("deleted-user")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := manager.Refresh(context.Background(), orphan); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing user, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "nova", "Secret123")
	manager := newTestManager(store)

	_, tokens, err := manager.Login(context.Background(), "nova", "Secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.ChangePassword(context.Background(), "user-1", "wrong", "NewSecret9"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}

	if err := manager.ChangePassword(context.Background(), "user-1", "Secret123", "NewSecret9"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	// The existing session survives a password change.
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("refresh after password change: %v", err)
	}

	if _, _, err := manager.Login(context.Background(), "nova", "NewSecret9"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
