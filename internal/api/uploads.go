package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/library"
	"github.com/starford/vitrine/internal/mapalbum"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/portfolio"
)

// multipartMemory is how much of a form ParseMultipartForm keeps in memory.
const multipartMemory = 32 << 20

// UploadHandler accepts multipart image uploads for photos and albums.
type UploadHandler struct {
	svc      *portfolio.Service
	maxBytes int64
}

// NewUploadHandler creates a handler capping request bodies at maxBytes.
func NewUploadHandler(svc *portfolio.Service, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	return &UploadHandler{svc: svc, maxBytes: maxBytes}
}

func (h *UploadHandler) parse(w http.ResponseWriter, r *http.Request, files int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*files)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return false
	}
	return true
}

// optFloat parses an optional coordinate form field.
func optFloat(r *http.Request, name string) (*float64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}

// openAll opens every "file" part. The returned closer releases them.
func openAll(r *http.Request) ([]io.Reader, func(), error) {
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["file"]
	}
	readers := make([]io.Reader, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

// UploadPhoto handles POST /api/photos (multipart/form-data).
//
//	@Summary		Upload a user photo
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file			formData	file	true	"Image file"
//	@Param			title			formData	string	true	"Title"
//	@Param			tags			formData	string	false	"Comma-separated tags"
//	@Param			lat				formData	number	false	"Latitude"
//	@Param			lng				formData	number	false	"Longitude"
//	@Param			locationName	formData	string	false	"Location label"
//	@Success		201				{object}	PhotoUploadResponse
//	@Failure		400				{object}	errResponse
//	@Failure		415				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos [post]
func (h *UploadHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r, 1) {
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	lat, err := optFloat(r, "lat")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	lng, err := optFloat(r, "lng")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	p, err := h.svc.AddPhoto(r.Context(), library.NewPhoto{
		Title:        r.FormValue("title"),
		Tags:         models.ParseTagList(r.FormValue("tags")),
		Image:        file,
		Lat:          lat,
		Lng:          lng,
		LocationName: r.FormValue("locationName"),
	})
	if err != nil {
		writeError(w, "upload photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, PhotoUploadResponse{Photo: p})
}

// CreateAlbum handles POST /api/albums (multipart/form-data, repeated "file").
//
//	@Summary		Create a map album
//	@Tags			albums
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image files"
//	@Param			title	formData	string	true	"Title"
//	@Param			desc	formData	string	false	"Description"
//	@Param			lat		formData	number	true	"Latitude"
//	@Param			lng		formData	number	true	"Longitude"
//	@Success		201		{object}	models.MapAlbum
//	@Failure		400		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums [post]
func (h *UploadHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r, maxAlbumFiles) {
		return
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("lat")), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("lat must be a number"))
		return
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("lng")), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("lng must be a number"))
		return
	}
	images, closeAll, err := openAll(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unreadable file part"))
		return
	}
	defer closeAll()

	a, err := h.svc.CreateAlbum(r.Context(), mapalbum.NewAlbum{
		Title:  r.FormValue("title"),
		Desc:   r.FormValue("desc"),
		Lat:    lat,
		Lng:    lng,
		Images: images,
	})
	if err != nil {
		writeError(w, "create album", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// AddAlbumPhotos handles POST /api/albums/{id}/photos.
//
//	@Summary		Append photos to a map album
//	@Tags			albums
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Album id"
//	@Param			file	formData	file	true	"Image files"
//	@Success		200		{object}	models.MapAlbum
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/albums/{id}/photos [post]
func (h *UploadHandler) AddAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r, maxAlbumFiles) {
		return
	}
	images, closeAll, err := openAll(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("unreadable file part"))
		return
	}
	defer closeAll()

	a, err := h.svc.AddAlbumPhotos(r.Context(), chi.URLParam(r, "id"), images)
	if err != nil {
		writeError(w, "add album photos", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// maxAlbumFiles bounds the body of an album upload to this many files.
const maxAlbumFiles = 10
