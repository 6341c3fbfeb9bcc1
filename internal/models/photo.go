package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Photo struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	GalleryID primitive.ObjectID `json:"galleryId" bson:"gallery_id"`
	Images    []Image            `json:"images" bson:"images"`
	Active    bool               `json:"active" bson:"active"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// PhotoView is a photo joined with its gallery.
type PhotoView struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Images    []Image            `json:"images" bson:"images"`
	Active    bool               `json:"active" bson:"active"`
	Gallery   ParentRef          `json:"gallery" bson:"gallery"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

type PhotoPatch struct {
	Title        *string
	GalleryID    *primitive.ObjectID
	RemoveImages []string
}

type PhotoFilter struct {
	SearchFilter
	GalleryID *primitive.ObjectID
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"totalPages"`
	Data       []T   `json:"data"`
}
