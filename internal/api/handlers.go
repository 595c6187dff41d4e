package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/checksum"
	"github.com/starford/vitrine/internal/library"
	"github.com/starford/vitrine/internal/portfolio"
	"github.com/starford/vitrine/internal/tags"
)

// Handler holds API route handlers.
type Handler struct {
	svc *portfolio.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *portfolio.Service) *Handler {
	return &Handler{svc: svc}
}

// instance returns the filter instance named by the query, library by default.
func instance(r *http.Request) string {
	if v := r.URL.Query().Get("instance"); v != "" {
		return v
	}
	return tags.InstanceLibrary
}

// ListWorks handles GET /api/works.
//
//	@Summary		List catalog works and user photos
//	@Tags			works
//	@Produce		json
//	@Param			instance	query		string	false	"Filter instance"	Enums(library, exhibition)
//	@Success		200			{object}	WorksResponse
//	@Security		BearerAuth
//	@Router			/works [get]
func (h *Handler) ListWorks(w http.ResponseWriter, r *http.Request) {
	inst := instance(r)
	writeJSON(w, http.StatusOK, WorksResponse{
		Works:    h.svc.Works(inst),
		Selected: h.svc.Filter(inst),
	})
}

// EditWork handles PUT /api/works/{id}.
//
//	@Summary		Edit a catalog work's title and tags
//	@Tags			works
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Work id"
//	@Param			body	body		WorkEditRequest	true	"New title and comma-separated tags"
//	@Success		200		{object}	models.Photo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/works/{id} [put]
func (h *Handler) EditWork(w http.ResponseWriter, r *http.Request) {
	var req WorkEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	work, err := h.svc.EditWork(chi.URLParam(r, "id"), req.Title, req.Tags)
	if err != nil {
		writeError(w, "edit work", err)
		return
	}
	writeJSON(w, http.StatusOK, work)
}

// ListTags handles GET /api/tags.
//
//	@Summary		List every tag across catalog and user photos
//	@Tags			tags
//	@Produce		json
//	@Success		200	{array}	string
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tags())
}

// GetFilter handles GET /api/filters/{instance}.
//
//	@Summary		Get a filter instance's selected tags
//	@Tags			tags
//	@Produce		json
//	@Param			instance	path		string	true	"Filter instance"
//	@Success		200			{object}	FilterResponse
//	@Security		BearerAuth
//	@Router			/filters/{instance} [get]
func (h *Handler) GetFilter(w http.ResponseWriter, r *http.Request) {
	inst := chi.URLParam(r, "instance")
	writeJSON(w, http.StatusOK, FilterResponse{Instance: inst, Selected: h.svc.Filter(inst)})
}

// SetFilter handles PUT /api/filters/{instance}.
//
//	@Summary		Replace a filter instance's selection
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			instance	path		string			true	"Filter instance"
//	@Param			body		body		FilterRequest	true	"Selected tags"
//	@Success		200			{object}	FilterResponse
//	@Security		BearerAuth
//	@Router			/filters/{instance} [put]
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst := chi.URLParam(r, "instance")
	writeJSON(w, http.StatusOK, FilterResponse{Instance: inst, Selected: h.svc.SetFilter(inst, req.Tags)})
}

// ToggleFilter handles POST /api/filters/{instance}/toggle.
//
//	@Summary		Toggle one tag in a filter instance
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			instance	path		string			true	"Filter instance"
//	@Param			body		body		ToggleRequest	true	"Tag to toggle"
//	@Success		200			{object}	FilterResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/filters/{instance}/toggle [post]
func (h *Handler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst := chi.URLParam(r, "instance")
	writeJSON(w, http.StatusOK, FilterResponse{Instance: inst, Selected: h.svc.ToggleFilter(inst, req.Tag)})
}

// ClearFilter handles DELETE /api/filters/{instance}.
//
//	@Summary		Clear a filter instance
//	@Tags			tags
//	@Param			instance	path	string	true	"Filter instance"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/filters/{instance} [delete]
func (h *Handler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearFilter(chi.URLParam(r, "instance"))
	w.WriteHeader(http.StatusNoContent)
}

// ListPhotos handles GET /api/photos.
//
//	@Summary		List user photos
//	@Tags			photos
//	@Produce		json
//	@Success		200	{array}	models.Photo
//	@Security		BearerAuth
//	@Router			/photos [get]
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Photos())
}

// UpdatePhoto handles PATCH /api/photos/{id}.
//
//	@Summary		Edit a user photo
//	@Tags			photos
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Photo id"
//	@Param			body	body		PhotoPatchRequest	true	"Fields to change"
//	@Success		200		{object}	models.Photo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos/{id} [patch]
func (h *Handler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var req PhotoPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePhoto(r.Context(), chi.URLParam(r, "id"), library.Patch{Title: req.Title, Tags: req.Tags})
	if err != nil {
		writeError(w, "update photo", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePhoto handles DELETE /api/photos/{id}.
//
//	@Summary		Delete a user photo
//	@Tags			photos
//	@Param			id	path	string	true	"Photo id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos/{id} [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePhoto(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetExhibition handles GET /api/exhibition.
// The response carries an ETag; a matching If-None-Match yields 304.
//
//	@Summary		Render the exhibition canvas
//	@Tags			exhibition
//	@Produce		json
//	@Success		200	{object}	portfolio.Canvas
//	@Success		304
//	@Security		BearerAuth
//	@Router			/exhibition [get]
func (h *Handler) GetExhibition(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Canvas()
	data, err := json.Marshal(c)
	if err != nil {
		writeError(w, "render exhibition", err)
		return
	}
	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// AddPhotoItem handles POST /api/exhibition/photos.
//
//	@Summary		Add a work to the exhibition
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddPhotoRequest	true	"Work to add"
//	@Success		201		{object}	models.LayoutItem
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/photos [post]
func (h *Handler) AddPhotoItem(w http.ResponseWriter, r *http.Request) {
	var req AddPhotoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.AddToExhibition(r.Context(), req.PhotoID)
	if err != nil {
		writeError(w, "add to exhibition", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// AddTextItem handles POST /api/exhibition/texts.
//
//	@Summary		Add a text block to the exhibition
//	@Tags			exhibition
//	@Produce		json
//	@Success		201	{object}	models.LayoutItem
//	@Security		BearerAuth
//	@Router			/exhibition/texts [post]
func (h *Handler) AddTextItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.AddText(r.Context())
	if err != nil {
		writeError(w, "add text", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// ResizeItem handles POST /api/exhibition/items/{id}/resize.
//
//	@Summary		Change an item's width by a delta
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Item id"
//	@Param			body	body		ResizeRequest	true	"Width delta in percent"
//	@Success		200		{object}	models.LayoutItem
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id}/resize [post]
func (h *Handler) ResizeItem(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.Resize(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		writeError(w, "resize item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// MoveItem handles PUT /api/exhibition/items/{id}/position.
//
//	@Summary		Move an item; coordinates are clamped to the canvas
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Item id"
//	@Param			body	body		PositionRequest	true	"Position in percent"
//	@Success		200		{object}	models.LayoutItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id}/position [put]
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.Reposition(r.Context(), chi.URLParam(r, "id"), *req.XPercent, *req.YPercent)
	if err != nil {
		writeError(w, "move item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// SetCaption handles PUT /api/exhibition/items/{id}/caption.
//
//	@Summary		Override a photo item's caption
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Item id"
//	@Param			body	body		TextRequest	true	"Caption text, empty for none"
//	@Success		200		{object}	models.LayoutItem
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id}/caption [put]
func (h *Handler) SetCaption(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.SetCaption(r.Context(), chi.URLParam(r, "id"), *req.Text)
	if err != nil {
		writeError(w, "set caption", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// SetContent handles PUT /api/exhibition/items/{id}/content.
//
//	@Summary		Overwrite a text block's content
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Item id"
//	@Param			body	body		TextRequest	true	"New content"
//	@Success		200		{object}	models.LayoutItem
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id}/content [put]
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.SetTextContent(r.Context(), chi.URLParam(r, "id"), *req.Text)
	if err != nil {
		writeError(w, "set content", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// SetFontSize handles PUT /api/exhibition/items/{id}/font-size.
//
//	@Summary		Change a text block's size class
//	@Tags			exhibition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Item id"
//	@Param			body	body		FontSizeRequest	true	"small, medium or large"
//	@Success		200		{object}	models.LayoutItem
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id}/font-size [put]
func (h *Handler) SetFontSize(w http.ResponseWriter, r *http.Request) {
	var req FontSizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.SetFontSize(r.Context(), chi.URLParam(r, "id"), req.FontSize)
	if err != nil {
		writeError(w, "set font size", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// RemoveItem handles DELETE /api/exhibition/items/{id}.
//
//	@Summary		Remove an item from the exhibition
//	@Tags			exhibition
//	@Param			id	path	string	true	"Item id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition/items/{id} [delete]
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "remove item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearExhibition handles DELETE /api/exhibition.
//
//	@Summary		Remove every item; requires confirm=true
//	@Tags			exhibition
//	@Param			confirm	query	bool	true	"Confirm the clear"
//	@Success		204
//	@Failure		428	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exhibition [delete]
func (h *Handler) ClearExhibition(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.svc.ClearExhibition(r.Context(), confirmed); err != nil {
		writeError(w, "clear exhibition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAlbums handles GET /api/albums.
//
//	@Summary		List map albums
//	@Tags			albums
//	@Produce		json
//	@Success		200	{array}	models.MapAlbum
//	@Security		BearerAuth
//	@Router			/albums [get]
func (h *Handler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Albums(r.Context()))
}

// ListMarkers handles GET /api/markers.
//
//	@Summary		List map markers for albums and located photos
//	@Tags			albums
//	@Produce		json
//	@Success		200	{array}	models.Marker
//	@Security		BearerAuth
//	@Router			/markers [get]
func (h *Handler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Markers(r.Context()))
}
