package handlers

import (
	"context"
	"net/http"
	"time"

	"kidsvideohub/internal/resolver"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Router bundles the handlers served by the API
type Router struct {
	Middleware *Middleware
	Kids       *KidHandler
	Folders    *FolderHandler
	Videos     *VideoHandler
	Global     *GlobalHandler
	Feedback   *FeedbackHandler
	Public     *PublicHandler
	Metrics    http.Handler
	DB         Pinger
	Cache      *resolver.Cache
}

// Handler registers every route and wraps the mux with request logging
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := rt.Middleware.RequireAuth
	limit := rt.Middleware.RateLimit

	mux.HandleFunc("GET /healthz", rt.health)
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	// Kids
	mux.HandleFunc("GET /api/kids", auth(rt.Kids.ListKids))
	mux.HandleFunc("POST /api/kids", auth(rt.Kids.CreateKid))
	mux.HandleFunc("PUT /api/kids/{id}", auth(rt.Kids.UpdateKid))
	mux.HandleFunc("DELETE /api/kids/{id}", auth(rt.Kids.DeleteKid))
	mux.HandleFunc("POST /api/kids/cleanup-duplicates", auth(rt.Kids.CleanupDuplicates))

	// Folders
	mux.HandleFunc("GET /api/folders", auth(rt.Folders.ListFolders))
	mux.HandleFunc("POST /api/folders", auth(rt.Folders.CreateFolder))
	mux.HandleFunc("PUT /api/folders/{id}", auth(rt.Folders.RenameFolder))
	mux.HandleFunc("DELETE /api/folders/{id}", auth(rt.Folders.DeleteFolder))

	// Videos and progress
	mux.HandleFunc("GET /api/videos", auth(rt.Videos.ListVideos))
	mux.HandleFunc("POST /api/videos", auth(rt.Videos.CreateVideo))
	mux.HandleFunc("PUT /api/videos/{id}", auth(rt.Videos.UpdateVideo))
	mux.HandleFunc("DELETE /api/videos/{id}", auth(rt.Videos.DeleteVideo))
	mux.HandleFunc("POST /api/videos/{id}/watched", auth(rt.Videos.MarkWatched))
	mux.HandleFunc("POST /api/videos/{id}/position", auth(rt.Videos.SavePosition))
	mux.HandleFunc("GET /api/badge/parent", auth(rt.Videos.ParentBadge))
	mux.HandleFunc("POST /api/badge/parent/clear", auth(rt.Videos.ClearParentBadge))

	// Global playlists
	mux.HandleFunc("GET /api/global/folders", auth(rt.Global.ListFolders))
	mux.HandleFunc("GET /api/global/folders/{id}/videos", auth(rt.Global.ListFolderVideos))
	mux.HandleFunc("GET /api/global/subscriptions", auth(rt.Global.ListSubscriptions))
	mux.HandleFunc("POST /api/global/subscriptions", auth(rt.Global.Subscribe))
	mux.HandleFunc("DELETE /api/global/subscriptions/{folderId}", auth(rt.Global.Unsubscribe))
	mux.HandleFunc("POST /api/global/subscriptions/{folderId}/sync", auth(rt.Global.Sync))

	// Feedback
	mux.HandleFunc("GET /api/feedback", auth(rt.Feedback.ListFeedback))
	mux.HandleFunc("POST /api/feedback", auth(rt.Feedback.CreateFeedback))

	// Kid-facing routes
	mux.HandleFunc("GET /api/public/kids/{kidId}", limit(rt.Public.GetKid))
	mux.HandleFunc("GET /api/public/kids/{kidId}/videos", limit(rt.Public.ListVideos))
	mux.HandleFunc("GET /api/public/kids/{kidId}/badge", limit(rt.Public.Badge))
	mux.HandleFunc("POST /api/public/kids/{kidId}/videos/{id}/watched", limit(rt.Public.MarkWatched))
	mux.HandleFunc("POST /api/public/kids/{kidId}/videos/{id}/position", limit(rt.Public.SavePosition))

	return Logging(mux)
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if rt.DB != nil {
		if err := rt.DB.PingContext(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "database unavailable", "Health check failed", err)
			return
		}
	}
	if client := rt.Cache.Client(); client != nil {
		if err := client.Ping(ctx).Err(); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "cache unavailable", "Health check failed", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
