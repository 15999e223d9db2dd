package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/snapstream/backend/internal/logging"
	"github.com/snapstream/backend/internal/media"
	"github.com/snapstream/backend/internal/models"
	"github.com/snapstream/backend/internal/repositories"
)

const maxVideoUploadBytes = 200 << 20

// VideoHandler implements the video catalog and publication endpoints.
type VideoHandler struct {
	Videos VideoStore
	Users  UserStore
	Media  MediaReplacer
}

// List handles GET /api/v1/videos/getAllVideos requests.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	query := r.URL.Query()
	ownerID := strings.TrimSpace(query.Get("userId"))
	titleQuery := strings.TrimSpace(query.Get("query"))

	page := positiveIntParam(query.Get("page"), 1)
	limit := positiveIntParam(query.Get("limit"), 10)
	if limit > 50 {
		limit = 50
	}

	if ownerID != "" {
		if _, err := h.Users.FindByID(ctx, ownerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondError(ctx, w, http.StatusNotFound, "user not found")
				return
			}
			logging.FromContext(ctx).Error("video list owner lookup failed", "userId", ownerID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
			return
		}
	}

	videos, err := h.Videos.List(ctx, ownerID, titleQuery, limit, (page-1)*limit)
	if err != nil {
		logging.FromContext(ctx).Error("video list failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	respondData(ctx, w, http.StatusOK, videos, "videos fetched")
}

// Publish handles POST /api/v1/videos/publishVideo requests. Both file
// parts are required; the new video is created already published.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("duration")), 64)
	if err != nil || duration < 0 {
		respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number of seconds")
		return
	}

	videoUpload, closeVideo, err := optionalFormUpload(r, "videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid video upload")
		return
	}
	defer closeVideo()
	if videoUpload == nil {
		respondError(ctx, w, http.StatusConflict, "videoFile is required")
		return
	}

	thumbUpload, closeThumb, err := optionalFormUpload(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid thumbnail upload")
		return
	}
	defer closeThumb()
	if thumbUpload == nil {
		respondError(ctx, w, http.StatusConflict, "thumbnail is required")
		return
	}

	video, err := h.Media.PublishVideo(ctx, ownerID, title, description, duration, *videoUpload, *thumbUpload)
	if err != nil {
		if errors.Is(err, media.ErrUpload) {
			logger.Warn("video upload failed", "userId", ownerID, "error", err)
			respondError(ctx, w, http.StatusBadRequest, "failed to upload video files")
			return
		}
		logger.Error("video publication failed", "userId", ownerID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	logger.Info("video published", "videoId", video.ID, "userId", ownerID)
	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// ByID handles /api/v1/videos/{videoId}: GET fetches, PATCH updates details
// and optionally swaps the thumbnail, DELETE removes the video.
func (h VideoHandler) ByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	// Recording the view is best-effort; the fetch still succeeds if it
	// fails.
	if err := h.Users.AddWatchHistory(ctx, userID, videoID); err != nil {
		logger.Warn("failed to record watch history", "userId", userID, "videoId", videoID, "error", err)
	}

	respondData(ctx, w, http.StatusOK, video, "video fetched")
}

func (h VideoHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	if err := h.Videos.UpdateDetails(ctx, video.ID, title, description); err != nil {
		logger.Error("video update failed", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update video")
		return
	}
	video.Title = title
	video.Description = description

	thumbUpload, closeThumb, err := optionalFormUpload(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid thumbnail upload")
		return
	}
	defer closeThumb()

	if thumbUpload != nil {
		updated, err := h.Media.ReplaceThumbnail(ctx, video.ID, *thumbUpload)
		if err != nil {
			logger.Error("thumbnail replacement failed", "videoId", video.ID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to update thumbnail")
			return
		}
		updated.Title = title
		updated.Description = description
		video = updated
	}

	respondData(ctx, w, http.StatusOK, video, "video updated successfully")
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		logger.Error("video delete failed", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	// The record is gone; removing the stored objects is best-effort.
	h.Media.DeleteObjects(video.VideoURL, video.Thumbnail)

	logger.Info("video deleted", "videoId", video.ID)
	respondData(ctx, w, http.StatusOK, nil, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	published, err := h.Videos.TogglePublish(ctx, video.ID)
	if err != nil {
		logging.FromContext(ctx).Error("publish toggle failed", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle publish state")
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]bool{"isPublished": published}, "publish state toggled")
}

// ownedVideo loads the path video and enforces that the requester owns it.
// On failure it writes the response and returns ok=false.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return models.Video{}, false
	}

	videoID := r.PathValue("videoId")
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("video lookup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return models.Video{}, false
	}

	if video.OwnerID != userID {
		respondError(ctx, w, http.StatusBadRequest, "only the owner can modify this video")
		return models.Video{}, false
	}

	return video, true
}

func positiveIntParam(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
