package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is a reference to an asset held by the image store.
type Image struct {
	URL      string `json:"url" bson:"url"`
	RemoteID string `json:"remoteId" bson:"remote_id"`
}

type Collection struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Slug      string             `json:"slug" bson:"slug"`
	Thumbnail Image              `json:"thumbnail" bson:"thumbnail"`
	Active    bool               `json:"active" bson:"active"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CollectionPatch holds the optional fields of a collection update.
// A nil field is left unchanged.
type CollectionPatch struct {
	Name *string
}

// ParentRef is the minimal projection of a parent entity attached to joined listings.
type ParentRef struct {
	ID   primitive.ObjectID `json:"id" bson:"_id"`
	Name string             `json:"name" bson:"name"`
}

// SearchFilter is shared by every search endpoint. Empty Query and nil Active match everything.
type SearchFilter struct {
	Query  string
	Active *bool
}
