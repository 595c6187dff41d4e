package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/portfolio"
)

// AddPhotoRequest places a work on the canvas.
type AddPhotoRequest struct {
	PhotoID string `json:"photoId" example:"work1" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *AddPhotoRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PhotoID, validation.Required),
	)
}

// ResizeRequest changes an item's width by delta percent.
type ResizeRequest struct {
	Delta float64 `json:"delta" example:"2" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *ResizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Delta, validation.Required.Error("delta must be non-zero")),
	)
}

// PositionRequest moves an item to canvas percentages.
type PositionRequest struct {
	XPercent *float64 `json:"xPercent" example:"40" validate:"required"`
	YPercent *float64 `json:"yPercent" example:"25" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *PositionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.XPercent, validation.NotNil),
		validation.Field(&r.YPercent, validation.NotNil),
	)
}

// TextRequest carries free-form text; empty is allowed.
type TextRequest struct {
	Text *string `json:"text" example:"Opening night" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *TextRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.NotNil),
	)
}

// FontSizeRequest sets a text item's size class.
type FontSizeRequest struct {
	FontSize models.FontSize `json:"fontSize" example:"large" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *FontSizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FontSize, validation.Required,
			validation.In(models.FontSmall, models.FontMedium, models.FontLarge)),
	)
}

// FilterRequest replaces a filter selection.
type FilterRequest struct {
	Tags []string `json:"tags" example:"travel,night"`
}

// Validate implements validation.Validatable.
func (r *FilterRequest) Validate() error { return nil }

// ToggleRequest flips one tag in a filter.
type ToggleRequest struct {
	Tag string `json:"tag" example:"travel" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *ToggleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Tag, validation.Required),
	)
}

// PhotoPatchRequest edits a user photo. Omitted fields are left alone.
type PhotoPatchRequest struct {
	Title *string `json:"title,omitempty" example:"Harbour at dusk"`
	Tags  *string `json:"tags,omitempty" example:"travel, night"`
}

// Validate implements validation.Validatable.
func (r *PhotoPatchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.When(r.Title != nil, validation.Required)),
	)
}

// WorkEditRequest edits a catalog work.
type WorkEditRequest struct {
	Title string `json:"title" example:"Crossroads Seaview" validate:"required"`
	Tags  string `json:"tags" example:"travel" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *WorkEditRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Tags, validation.Required),
	)
}

// WorksResponse wraps the library view.
type WorksResponse struct {
	Works    []portfolio.WorkCard `json:"works" validate:"required"`
	Selected []string             `json:"selected" validate:"required"`
}

// FilterResponse is a filter instance's selection.
type FilterResponse struct {
	Instance string   `json:"instance" example:"library" validate:"required"`
	Selected []string `json:"selected" validate:"required"`
}

// PhotoUploadResponse is returned after a successful photo upload.
type PhotoUploadResponse struct {
	Photo models.Photo `json:"photo" validate:"required"`
}
