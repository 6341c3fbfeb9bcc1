package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/models"
	"galleria/internal/storage"
)

func TestCreateGallery(t *testing.T) {
	ctx := context.Background()
	galleries := new(MockGalleryRepository)
	collections := new(MockCollectionRepository)
	images := new(MockImageStore)
	svc := NewGalleryService(galleries, collections, images)

	col := &models.Collection{ID: primitive.NewObjectID(), Name: "Summer 2024"}
	collections.On("FindByID", ctx, col.ID).Return(col, nil)
	galleries.On("FindBySlug", ctx, col.ID, "beach-day").Return(nil, mongo.ErrNoDocuments)
	images.On("Upload", ctx, mock.Anything, "collections/summer-2024/beach-day").Return(models.Image{URL: "u", RemoteID: "r"}, nil)
	galleries.On("Create", ctx, mock.Anything).Return(func(g *models.Gallery) *models.Gallery { return g }, nil)

	g, err := svc.Create(ctx, "Beach Day", col.ID, []storage.File{*pngFile("1.png"), *pngFile("2.png")})
	require.NoError(t, err)
	assert.Len(t, g.Images, 2)
	assert.Equal(t, col.ID, g.CollectionID)
	assert.Equal(t, "beach-day", g.Slug)
	images.AssertNumberOfCalls(t, "Upload", 2)
}

func TestCreateGalleryRejects(t *testing.T) {
	ctx := context.Background()
	galleries := new(MockGalleryRepository)
	collections := new(MockCollectionRepository)
	images := new(MockImageStore)
	svc := NewGalleryService(galleries, collections, images)
	files := []storage.File{*pngFile("1.png")}

	_, err := svc.Create(ctx, "", primitive.NewObjectID(), files)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "Beach", primitive.NilObjectID, files)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, "Beach", primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, ErrValidation)

	for _, name := range []string{"..", ".", "beach/day"} {
		_, err = svc.Create(ctx, name, primitive.NewObjectID(), files)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	missing := primitive.NewObjectID()
	collections.On("FindByID", ctx, missing).Return(nil, mongo.ErrNoDocuments)
	_, err = svc.Create(ctx, "Beach", missing, files)
	assert.ErrorIs(t, err, ErrNotFound)

	// "Beach  Day" and "beach-day" share collections/summer/beach-day
	col := &models.Collection{ID: primitive.NewObjectID(), Name: "Summer"}
	collections.On("FindByID", ctx, col.ID).Return(col, nil)
	galleries.On("FindBySlug", ctx, col.ID, "beach-day").Return(&models.Gallery{ID: primitive.NewObjectID(), Name: "Beach  Day"}, nil)
	_, err = svc.Create(ctx, "beach-day", col.ID, files)
	assert.ErrorIs(t, err, ErrConflict)

	images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGalleryInsertFailureRemovesUploads(t *testing.T) {
	ctx := context.Background()
	galleries := new(MockGalleryRepository)
	collections := new(MockCollectionRepository)
	images := new(MockImageStore)
	svc := NewGalleryService(galleries, collections, images)

	col := &models.Collection{ID: primitive.NewObjectID(), Name: "Summer"}
	collections.On("FindByID", ctx, col.ID).Return(col, nil)
	galleries.On("FindBySlug", ctx, col.ID, "beach").Return(nil, mongo.ErrNoDocuments)
	images.On("Upload", ctx, mock.Anything, mock.Anything).Return(models.Image{URL: "u", RemoteID: "collections/summer/beach/1.png"}, nil)
	galleries.On("Create", ctx, mock.Anything).Return(nil, mongo.ErrClientDisconnected)
	images.On("Delete", ctx, "collections/summer/beach/1.png").Return(nil)

	_, err := svc.Create(ctx, "Beach", col.ID, []storage.File{*pngFile("1.png")})
	assert.Error(t, err)
	images.AssertCalled(t, "Delete", ctx, "collections/summer/beach/1.png")
}

func TestUpdateGalleryImages(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()
	current := func() *models.Gallery {
		return &models.Gallery{
			ID:           id,
			Name:         "Beach",
			CollectionID: primitive.NewObjectID(),
			Images: []models.Image{
				{URL: "u1", RemoteID: "r1"},
				{URL: "u2", RemoteID: "r2"},
			},
		}
	}

	t.Run("removes only images the gallery owns", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		images := new(MockImageStore)
		svc := NewGalleryService(galleries, new(MockCollectionRepository), images)

		galleries.On("FindByID", ctx, id).Return(current(), nil)
		images.On("Delete", ctx, "r1").Return(nil)
		galleries.On("Update", ctx, id, mock.MatchedBy(func(f bson.M) bool {
			imgs, ok := f["images"].([]models.Image)
			return ok && len(imgs) == 1 && imgs[0].RemoteID == "r2"
		})).Return(&models.Gallery{ID: id}, nil)

		_, err := svc.Update(ctx, id, models.GalleryPatch{RemoveImages: []string{"r1", "someone-elses"}}, nil)
		require.NoError(t, err)
		images.AssertNumberOfCalls(t, "Delete", 1)
	})

	t.Run("cannot remove every image", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		images := new(MockImageStore)
		svc := NewGalleryService(galleries, new(MockCollectionRepository), images)

		galleries.On("FindByID", ctx, id).Return(current(), nil)

		_, err := svc.Update(ctx, id, models.GalleryPatch{RemoveImages: []string{"r1", "r2"}}, nil)
		assert.ErrorIs(t, err, ErrValidation)
		images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("moving to a missing collection", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		collections := new(MockCollectionRepository)
		svc := NewGalleryService(galleries, collections, new(MockImageStore))

		target := primitive.NewObjectID()
		galleries.On("FindByID", ctx, id).Return(current(), nil)
		collections.On("FindByID", ctx, target).Return(nil, mongo.ErrNoDocuments)

		_, err := svc.Update(ctx, id, models.GalleryPatch{CollectionID: &target}, nil)
		assert.ErrorIs(t, err, ErrNotFound)
		galleries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new images go to the gallery folder", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		collections := new(MockCollectionRepository)
		images := new(MockImageStore)
		svc := NewGalleryService(galleries, collections, images)

		g := current()
		galleries.On("FindByID", ctx, id).Return(g, nil)
		collections.On("FindByID", ctx, g.CollectionID).Return(&models.Collection{ID: g.CollectionID, Name: "Summer"}, nil)
		images.On("Upload", ctx, mock.Anything, "collections/summer/beach").Return(models.Image{URL: "u3", RemoteID: "r3"}, nil)
		galleries.On("Update", ctx, id, mock.MatchedBy(func(f bson.M) bool {
			imgs, ok := f["images"].([]models.Image)
			return ok && len(imgs) == 3
		})).Return(&models.Gallery{ID: id}, nil)

		_, err := svc.Update(ctx, id, models.GalleryPatch{}, []storage.File{*pngFile("3.png")})
		require.NoError(t, err)
	})
}

func TestUpdateGalleryMoveAndRename(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()
	from := primitive.NewObjectID()
	current := func() *models.Gallery {
		return &models.Gallery{ID: id, Name: "Beach", Slug: "beach", CollectionID: from, Images: []models.Image{{URL: "u1", RemoteID: "collections/summer/beach/1.png"}}}
	}

	t.Run("move to another collection", func(t *testing.T) {
		logs := captureLog(t)
		galleries := new(MockGalleryRepository)
		collections := new(MockCollectionRepository)
		svc := NewGalleryService(galleries, collections, new(MockImageStore))

		to := &models.Collection{ID: primitive.NewObjectID(), Name: "Winter"}
		galleries.On("FindByID", ctx, id).Return(current(), nil)
		collections.On("FindByID", ctx, to.ID).Return(to, nil)
		galleries.On("FindBySlug", ctx, to.ID, "beach").Return(nil, mongo.ErrNoDocuments)
		galleries.On("Update", ctx, id, mock.MatchedBy(func(f bson.M) bool {
			_, renamed := f["name"]
			_, touchedImages := f["images"]
			return f["collection_id"] == to.ID && !renamed && !touchedImages
		})).Return(&models.Gallery{ID: id, Name: "Beach", CollectionID: to.ID}, nil)

		updated, err := svc.Update(ctx, id, models.GalleryPatch{CollectionID: &to.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, to.ID, updated.CollectionID)
		assert.Contains(t, logs.String(), `"level":"warn"`)
		assert.Contains(t, logs.String(), "collections/summer/beach/1.png")
	})

	t.Run("move onto a gallery of the same name", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		collections := new(MockCollectionRepository)
		svc := NewGalleryService(galleries, collections, new(MockImageStore))

		to := &models.Collection{ID: primitive.NewObjectID(), Name: "Winter"}
		galleries.On("FindByID", ctx, id).Return(current(), nil)
		collections.On("FindByID", ctx, to.ID).Return(to, nil)
		galleries.On("FindBySlug", ctx, to.ID, "beach").Return(&models.Gallery{ID: primitive.NewObjectID(), Name: "BEACH"}, nil)

		_, err := svc.Update(ctx, id, models.GalleryPatch{CollectionID: &to.ID}, nil)
		assert.ErrorIs(t, err, ErrConflict)
		galleries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rename stores the new slug", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		svc := NewGalleryService(galleries, new(MockCollectionRepository), new(MockImageStore))

		galleries.On("FindByID", ctx, id).Return(current(), nil)
		galleries.On("FindBySlug", ctx, from, "dunes").Return(nil, mongo.ErrNoDocuments)
		galleries.On("Update", ctx, id, mock.MatchedBy(func(f bson.M) bool {
			return f["name"] == "Dunes" && f["slug"] == "dunes"
		})).Return(&models.Gallery{ID: id, Name: "Dunes"}, nil)

		name := "Dunes"
		_, err := svc.Update(ctx, id, models.GalleryPatch{Name: &name}, nil)
		require.NoError(t, err)
	})

	t.Run("rename onto an unsafe folder name", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		svc := NewGalleryService(galleries, new(MockCollectionRepository), new(MockImageStore))

		galleries.On("FindByID", ctx, id).Return(current(), nil)

		name := ".."
		_, err := svc.Update(ctx, id, models.GalleryPatch{Name: &name}, nil)
		assert.ErrorIs(t, err, ErrValidation)
		galleries.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unique index race maps to conflict", func(t *testing.T) {
		galleries := new(MockGalleryRepository)
		svc := NewGalleryService(galleries, new(MockCollectionRepository), new(MockImageStore))

		galleries.On("FindByID", ctx, id).Return(current(), nil)
		galleries.On("FindBySlug", ctx, from, "dunes").Return(nil, mongo.ErrNoDocuments)
		galleries.On("Update", ctx, id, mock.Anything).Return(nil, duplicateKeyError())

		name := "Dunes"
		_, err := svc.Update(ctx, id, models.GalleryPatch{Name: &name}, nil)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestToggleGalleryStatus(t *testing.T) {
	ctx := context.Background()
	galleries := new(MockGalleryRepository)
	svc := NewGalleryService(galleries, new(MockCollectionRepository), new(MockImageStore))

	g := &models.Gallery{ID: primitive.NewObjectID(), Name: "Beach", Active: true}
	galleries.On("FindByID", ctx, g.ID).Return(g, nil)
	galleries.On("Update", ctx, g.ID, mock.Anything).Run(func(args mock.Arguments) {
		g.Active = args.Get(2).(bson.M)["active"].(bool)
	}).Return(g, nil)

	first, err := svc.ToggleStatus(ctx, g.ID, nil)
	require.NoError(t, err)
	assert.False(t, first.Active)

	second, err := svc.ToggleStatus(ctx, g.ID, nil)
	require.NoError(t, err)
	assert.True(t, second.Active)

	off := false
	third, err := svc.ToggleStatus(ctx, g.ID, &off)
	require.NoError(t, err)
	assert.False(t, third.Active)

	missing := primitive.NewObjectID()
	galleries.On("FindByID", ctx, missing).Return(nil, mongo.ErrNoDocuments)
	_, err = svc.ToggleStatus(ctx, missing, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
