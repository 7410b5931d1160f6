package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultImageURL is used when a home is saved without an image.
const DefaultImageURL = "http://i.imgur.com/3BrMZK8.png"

// ErrInvalidHome wraps every Home validation failure.
var ErrInvalidHome = errors.New("invalid home")

// validate shares gin's "binding" tag so request DTOs and models use one rule set.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}()

// Home is a listed home, persisted in the homes table.
type Home struct {
	ID          string   `db:"id" json:"id"`
	Name        string   `db:"name" json:"name" binding:"required"`
	Location    string   `db:"location" json:"location" binding:"required"`
	Description *string  `db:"description" json:"description"`
	ImageURL    string   `db:"image_url" json:"imageUrl" binding:"required,url"`
	Rating      *float64 `db:"rating" json:"rating"`
	Price       float64  `db:"price" json:"price"`
	PhotoFileID string   `db:"photo_file_id" json:"-"`
	CreatedAt   string   `db:"created_at" json:"createdAt"`
	UpdatedAt   string   `db:"updated_at" json:"updatedAt"`
}

// ApplyDefaults fills unset fields that have a column default.
func (h *Home) ApplyDefaults() {
	if h.ImageURL == "" {
		h.ImageURL = DefaultImageURL
	}
}

// Validate checks required fields and the image URL format.
func (h *Home) Validate() error {
	if err := validate.Struct(h); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHome, err)
	}
	return nil
}
