package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gallery struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Slug         string             `json:"slug" bson:"slug"`
	CollectionID primitive.ObjectID `json:"collectionId" bson:"collection_id"`
	Images       []Image            `json:"images" bson:"images"`
	Active       bool               `json:"active" bson:"active"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// GalleryView is a gallery joined with its collection.
type GalleryView struct {
	ID         primitive.ObjectID `json:"id" bson:"_id"`
	Name       string             `json:"name" bson:"name"`
	Images     []Image            `json:"images" bson:"images"`
	Active     bool               `json:"active" bson:"active"`
	Collection ParentRef          `json:"collection" bson:"collection"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}

type GalleryPatch struct {
	Name         *string
	CollectionID *primitive.ObjectID
	RemoveImages []string
}

type GalleryFilter struct {
	SearchFilter
	CollectionID *primitive.ObjectID
}
