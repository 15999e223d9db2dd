package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Videos   VideoStore
	Sessions SessionManager
	Media    MediaReplacer
	Limiter  RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, Limiter: deps.Limiter}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media}

	authed := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(deps.Sessions, h)
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", users.RefreshToken)
	mux.Handle("/api/v1/users/logout", authed(users.Logout))
	mux.Handle("/api/v1/users/change-password", authed(users.ChangePassword))
	mux.Handle("/api/v1/users/current-user", authed(users.CurrentUser))
	mux.Handle("/api/v1/users/update-account", authed(users.UpdateAccount))
	mux.Handle("/api/v1/users/updateAvatar", authed(users.UpdateAvatar))
	mux.Handle("/api/v1/users/updateCoverImage", authed(users.UpdateCoverImage))
	mux.Handle("/api/v1/users/c/{username}", authed(users.Channel))
	mux.Handle("/api/v1/users/history", authed(users.WatchHistory))

	mux.Handle("/api/v1/videos/getAllVideos", authed(videos.List))
	mux.Handle("/api/v1/videos/publishVideo", authed(videos.Publish))
	mux.Handle("/api/v1/videos/{videoId}", authed(videos.ByID))
	mux.Handle("/api/v1/videos/toggle/publish/{videoId}", authed(videos.TogglePublish))
}
