package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/snapstream/backend/internal/models"
	"github.com/snapstream/backend/internal/repositories"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string

	failPutAfter int // fail the Nth Put (1-based); 0 disables
	puts         int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]string)}
}

func (s *fakeBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	if s.failPutAfter > 0 && s.puts >= s.failPutAfter {
		return "", errors.New("storage unavailable")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = string(data)
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + key + "?signed", nil
}

func (s *fakeBlobStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

type fakeUserStore struct {
	users map[string]models.User

	failCommit bool
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) CommitAvatar(_ context.Context, userID, oldURL, newURL string) error {
	return s.commit(userID, oldURL, newURL, false)
}

func (s *fakeUserStore) CommitCoverImage(_ context.Context, userID, oldURL, newURL string) error {
	return s.commit(userID, oldURL, newURL, true)
}

func (s *fakeUserStore) commit(userID, oldURL, newURL string, cover bool) error {
	if s.failCommit {
		return errors.New("write failed")
	}
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	current := user.Avatar
	if cover {
		current = user.CoverImage
	}
	if current != oldURL {
		return repositories.ErrStaleWrite
	}
	if cover {
		user.CoverImage = newURL
	} else {
		user.Avatar = newURL
	}
	s.users[userID] = user
	return nil
}

type fakeVideoStore struct {
	videos map[string]models.Video

	failCreate bool
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	if s.failCreate {
		return errors.New("insert failed")
	}
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) CommitThumbnail(_ context.Context, id, oldURL, newURL string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if video.Thumbnail != oldURL {
		return repositories.ErrStaleWrite
	}
	video.Thumbnail = newURL
	s.videos[id] = video
	return nil
}

func upload(name, content string) Upload {
	return Upload{Name: name, ContentType: "image/png", Size: int64(len(content)), Content: strings.NewReader(content)}
}

func TestReplaceAvatarSwapsAndDeletesOld(t *testing.T) {
	blobs := newFakeBlobStore()
	users := &fakeUserStore{users: map[string]models.User{
		"user-1": {ID: "user-1", Avatar: "https://cdn.example.com/avatar/100-old.png"},
	}}
	replacer := NewReplacer(blobs, users, &fakeVideoStore{videos: map[string]models.Video{}}, nil)

	updated, err := replacer.ReplaceAvatar(context.Background(), "user-1", upload("new.png", "image-bytes"))
	if err != nil {
		t.Fatalf("replace avatar: %v", err)
	}

	if updated.Avatar == "" || updated.Avatar == "https://cdn.example.com/avatar/100-old.png" {
		t.Fatalf("expected a fresh avatar location, got %q", updated.Avatar)
	}
	if users.users["user-1"].Avatar != updated.Avatar {
		t.Fatalf("record not committed: %q", users.users["user-1"].Avatar)
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 1 || deleted[0] != "avatar/100-old.png" {
		t.Fatalf("expected old object deleted, got %v", deleted)
	}
}

func TestReplaceAvatarRollsBackUploadWhenCommitFails(t *testing.T) {
	blobs := newFakeBlobStore()
	users := &fakeUserStore{
		users:      map[string]models.User{"user-1": {ID: "user-1", Avatar: "https://cdn.example.com/avatar/100-old.png"}},
		failCommit: true,
	}
	replacer := NewReplacer(blobs, users, &fakeVideoStore{videos: map[string]models.Video{}}, nil)

	_, err := replacer.ReplaceAvatar(context.Background(), "user-1", upload("new.png", "image-bytes"))
	if err == nil {
		t.Fatal("expected commit failure to propagate")
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 1 {
		t.Fatalf("expected exactly the new upload deleted, got %v", deleted)
	}
	if !strings.HasPrefix(deleted[0], CategoryAvatar+"/") || !strings.HasSuffix(deleted[0], "-new.png") {
		t.Fatalf("expected rollback of the new key, got %q", deleted[0])
	}
	if users.users["user-1"].Avatar != "https://cdn.example.com/avatar/100-old.png" {
		t.Fatal("record must be untouched after a failed commit")
	}
}

func TestReplaceAvatarUploadFailureLeavesRecordUntouched(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failPutAfter = 1
	users := &fakeUserStore{users: map[string]models.User{"user-1": {ID: "user-1"}}}
	replacer := NewReplacer(blobs, users, &fakeVideoStore{videos: map[string]models.Video{}}, nil)

	_, err := replacer.ReplaceAvatar(context.Background(), "user-1", upload("new.png", "image-bytes"))
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload got %v", err)
	}
	if len(blobs.deletedKeys()) != 0 {
		t.Fatal("nothing to roll back when the upload itself failed")
	}
}

func TestReplaceAvatarUnknownUser(t *testing.T) {
	replacer := NewReplacer(newFakeBlobStore(), &fakeUserStore{users: map[string]models.User{}}, &fakeVideoStore{videos: map[string]models.Video{}}, nil)

	_, err := replacer.ReplaceAvatar(context.Background(), "ghost", upload("new.png", "x"))
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestReplaceCoverImageFirstTimeSkipsDelete(t *testing.T) {
	blobs := newFakeBlobStore()
	users := &fakeUserStore{users: map[string]models.User{"user-1": {ID: "user-1"}}}
	replacer := NewReplacer(blobs, users, &fakeVideoStore{videos: map[string]models.Video{}}, nil)

	updated, err := replacer.ReplaceCoverImage(context.Background(), "user-1", upload("cover.jpg", "bytes"))
	if err != nil {
		t.Fatalf("replace cover: %v", err)
	}
	if updated.CoverImage == "" {
		t.Fatal("expected cover image location")
	}
	if len(blobs.deletedKeys()) != 0 {
		t.Fatalf("no previous object should be deleted, got %v", blobs.deletedKeys())
	}
}

func TestPublishVideoCreatesRecord(t *testing.T) {
	blobs := newFakeBlobStore()
	videos := &fakeVideoStore{videos: map[string]models.Video{}}
	replacer := NewReplacer(blobs, &fakeUserStore{users: map[string]models.User{}}, videos, nil)

	video, err := replacer.PublishVideo(context.Background(), "user-1", "First", "hello", 125, upload("clip.mp4", "video"), upload("thumb.png", "thumb"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if video.Duration != "2:05" {
		t.Fatalf("expected formatted duration 2:05 got %q", video.Duration)
	}
	if video.VideoURL == "" || video.Thumbnail == "" {
		t.Fatalf("expected both locations set: %+v", video)
	}
	if _, ok := videos.videos[video.ID]; !ok {
		t.Fatal("expected record persisted")
	}
}

func TestPublishVideoSecondUploadFailureRollsBackFirst(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failPutAfter = 2
	videos := &fakeVideoStore{videos: map[string]models.Video{}}
	replacer := NewReplacer(blobs, &fakeUserStore{users: map[string]models.User{}}, videos, nil)

	_, err := replacer.PublishVideo(context.Background(), "user-1", "First", "hello", 10, upload("clip.mp4", "video"), upload("thumb.png", "thumb"))
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload got %v", err)
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 1 || !strings.HasPrefix(deleted[0], CategoryVideo+"/") {
		t.Fatalf("expected the video upload rolled back, got %v", deleted)
	}
	if len(videos.videos) != 0 {
		t.Fatal("no record may be created when an upload fails")
	}
}

func TestPublishVideoInsertFailureRollsBackBothUploads(t *testing.T) {
	blobs := newFakeBlobStore()
	videos := &fakeVideoStore{videos: map[string]models.Video{}, failCreate: true}
	replacer := NewReplacer(blobs, &fakeUserStore{users: map[string]models.User{}}, videos, nil)

	_, err := replacer.PublishVideo(context.Background(), "user-1", "First", "hello", 10, upload("clip.mp4", "video"), upload("thumb.png", "thumb"))
	if err == nil {
		t.Fatal("expected insert failure to propagate")
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 2 {
		t.Fatalf("expected both uploads rolled back, got %v", deleted)
	}
}

func TestReplaceThumbnail(t *testing.T) {
	blobs := newFakeBlobStore()
	videos := &fakeVideoStore{videos: map[string]models.Video{
		"vid-1": {ID: "vid-1", OwnerID: "user-1", Thumbnail: "https://cdn.example.com/thumbnail/100-old.png"},
	}}
	replacer := NewReplacer(blobs, &fakeUserStore{users: map[string]models.User{}}, videos, nil)

	updated, err := replacer.ReplaceThumbnail(context.Background(), "vid-1", upload("fresh.png", "bytes"))
	if err != nil {
		t.Fatalf("replace thumbnail: %v", err)
	}
	if updated.Thumbnail == "https://cdn.example.com/thumbnail/100-old.png" {
		t.Fatal("expected a fresh thumbnail location")
	}

	deleted := blobs.deletedKeys()
	if len(deleted) != 1 || deleted[0] != "thumbnail/100-old.png" {
		t.Fatalf("expected old thumbnail deleted, got %v", deleted)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61.9, "1:01"},
		{600, "10:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
