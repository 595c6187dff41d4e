package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/portfolio"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// maxUploadBytes caps a single uploaded file.
func NewRouter(svc *portfolio.Service, authEnabled bool, token string, sseHandler http.Handler, maxUploadBytes int64) chi.Router {
	h := NewHandler(svc)
	uh := NewUploadHandler(svc, maxUploadBytes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Library view.
	r.Get("/works", h.ListWorks)
	r.Put("/works/{id}", h.EditWork)
	r.Get("/tags", h.ListTags)

	// Tag filters.
	r.Get("/filters/{instance}", h.GetFilter)
	r.Put("/filters/{instance}", h.SetFilter)
	r.Post("/filters/{instance}/toggle", h.ToggleFilter)
	r.Delete("/filters/{instance}", h.ClearFilter)

	// User collection.
	r.Get("/photos", h.ListPhotos)
	r.Post("/photos", uh.UploadPhoto)
	r.Patch("/photos/{id}", h.UpdatePhoto)
	r.Delete("/photos/{id}", h.DeletePhoto)

	// Exhibition canvas.
	r.Route("/exhibition", func(r chi.Router) {
		r.Get("/", h.GetExhibition)
		r.Delete("/", h.ClearExhibition)
		r.Post("/photos", h.AddPhotoItem)
		r.Post("/texts", h.AddTextItem)
		r.Get("/drag", NewDragHandler(svc).ServeHTTP)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Delete("/", h.RemoveItem)
			r.Post("/resize", h.ResizeItem)
			r.Put("/position", h.MoveItem)
			r.Put("/caption", h.SetCaption)
			r.Put("/content", h.SetContent)
			r.Put("/font-size", h.SetFontSize)
		})
	})

	// Map albums.
	r.Get("/albums", h.ListAlbums)
	r.Post("/albums", uh.CreateAlbum)
	r.Post("/albums/{id}/photos", uh.AddAlbumPhotos)
	r.Get("/markers", h.ListMarkers)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
