package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/models"
	"galleria/internal/utils"
)

func newGallery(name string, collectionID primitive.ObjectID, images int) *models.Gallery {
	now := time.Now().UTC()
	g := &models.Gallery{Name: name, Slug: utils.Slug(name), CollectionID: collectionID, Active: true, CreatedAt: now, UpdatedAt: now, Images: []models.Image{}}
	for i := 0; i < images; i++ {
		id := primitive.NewObjectID().Hex()
		g.Images = append(g.Images, models.Image{URL: "https://cdn/" + id, RemoteID: id})
	}
	return g
}

func TestGalleryRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	collections := NewCollectionRepository(db)
	galleries := NewGalleryRepository(db)
	require.NoError(t, EnsureIndexes(ctx, collections, galleries))

	summer, err := collections.Create(ctx, newCollection("Summer", true))
	require.NoError(t, err)
	winter, err := collections.Create(ctx, newCollection("Winter", true))
	require.NoError(t, err)

	beach, err := galleries.Create(ctx, newGallery("Beach", summer.ID, 2))
	require.NoError(t, err)
	_, err = galleries.Create(ctx, newGallery("Pool", summer.ID, 1))
	require.NoError(t, err)
	_, err = galleries.Create(ctx, newGallery("Snow", winter.ID, 1))
	require.NoError(t, err)
	_, err = galleries.Create(ctx, newGallery("Orphan", primitive.NewObjectID(), 1))
	require.NoError(t, err)

	t.Run("Get by id", func(t *testing.T) {
		found, err := galleries.FindByID(ctx, beach.ID)
		require.NoError(t, err)
		assert.Equal(t, "Beach", found.Name)
		assert.Len(t, found.Images, 2)
	})

	t.Run("Slug is unique within a collection", func(t *testing.T) {
		_, err := galleries.Create(ctx, newGallery("BEACH", summer.ID, 1))
		require.Error(t, err)
		assert.True(t, mongo.IsDuplicateKeyError(err))

		other, err := galleries.Create(ctx, newGallery("Beach", winter.ID, 1))
		require.NoError(t, err)

		found, err := galleries.FindBySlug(ctx, winter.ID, "beach")
		require.NoError(t, err)
		assert.Equal(t, other.ID, found.ID)

		_, err = galleries.Delete(ctx, other.ID)
		require.NoError(t, err)
		_, err = galleries.FindBySlug(ctx, winter.ID, "beach")
		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	})

	t.Run("Find by collection", func(t *testing.T) {
		found, err := galleries.FindByCollection(ctx, summer.ID)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("List joins the collection and drops orphans", func(t *testing.T) {
		views, err := galleries.List(ctx, models.GalleryFilter{})
		require.NoError(t, err)
		require.Len(t, views, 3)
		for _, v := range views {
			assert.NotEmpty(t, v.Collection.Name)
			assert.NotEqual(t, "Orphan", v.Name)
		}
	})

	t.Run("List filters by collection and name", func(t *testing.T) {
		views, err := galleries.List(ctx, models.GalleryFilter{CollectionID: &summer.ID})
		require.NoError(t, err)
		assert.Len(t, views, 2)

		views, err = galleries.List(ctx, models.GalleryFilter{SearchFilter: models.SearchFilter{Query: "bEaCh"}})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, summer.ID, views[0].Collection.ID)
		assert.Equal(t, "Summer", views[0].Collection.Name)
	})

	t.Run("DeleteMany", func(t *testing.T) {
		found, err := galleries.FindByCollection(ctx, summer.ID)
		require.NoError(t, err)
		ids := []primitive.ObjectID{}
		for _, g := range found {
			ids = append(ids, g.ID)
		}

		n, err := galleries.DeleteMany(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := galleries.FindByCollection(ctx, summer.ID)
		require.NoError(t, err)
		assert.Empty(t, left)

		n, err = galleries.DeleteMany(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
