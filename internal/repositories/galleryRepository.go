package repositories

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/database"
	"galleria/internal/models"
	"galleria/internal/utils"
)

type GalleryRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, gallery *models.Gallery) (*models.Gallery, error)
	FindByID(ctx context.Context, galleryID primitive.ObjectID) (*models.Gallery, error)
	FindByCollection(ctx context.Context, collectionID primitive.ObjectID) ([]models.Gallery, error)
	// FindBySlug finds the gallery of a collection that owns a folder slug.
	FindBySlug(ctx context.Context, collectionID primitive.ObjectID, slug string) (*models.Gallery, error)
	// List returns galleries joined with their collection, filtered and newest first.
	List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryView, error)
	Update(ctx context.Context, galleryID primitive.ObjectID, updateFields bson.M) (*models.Gallery, error)
	Delete(ctx context.Context, galleryID primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, galleryIDs []primitive.ObjectID) (int64, error)
}

type galleryRepository struct {
	db database.Service
}

func NewGalleryRepository(db database.Service) GalleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.GalleriesCollection)
}

func (r *galleryRepository) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateIndex(ctx, r.collection(), bson.D{{Key: "collection_id", Value: 1}}); err != nil {
		return err
	}
	keys := bson.D{{Key: "collection_id", Value: 1}, {Key: "slug", Value: 1}}
	if err := utils.CreateUniqueIndex(ctx, r.collection(), keys, "gallery slug", nil); err != nil {
		return err
	}
	return utils.CreateIndex(ctx, r.collection(), newestFirst)
}

func (r *galleryRepository) Create(ctx context.Context, gallery *models.Gallery) (*models.Gallery, error) {
	timer := utils.NewQueryTimer("create", "gallery")
	defer timer.Done()

	res, err := r.collection().InsertOne(ctx, gallery)
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("failed to insert gallery: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		gallery.ID = id
	}
	return gallery, nil
}

func (r *galleryRepository) FindByID(ctx context.Context, galleryID primitive.ObjectID) (*models.Gallery, error) {
	timer := utils.NewQueryTimer("findByID", "gallery")
	defer timer.Done()

	var gallery models.Gallery
	err := r.collection().FindOne(ctx, bson.M{"_id": galleryID}).Decode(&gallery)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &gallery, nil
}

func (r *galleryRepository) FindBySlug(ctx context.Context, collectionID primitive.ObjectID, slug string) (*models.Gallery, error) {
	timer := utils.NewQueryTimer("findBySlug", "gallery")
	defer timer.Done()

	var gallery models.Gallery
	err := r.collection().FindOne(ctx, bson.M{"collection_id": collectionID, "slug": slug}).Decode(&gallery)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &gallery, nil
}

func (r *galleryRepository) FindByCollection(ctx context.Context, collectionID primitive.ObjectID) ([]models.Gallery, error) {
	timer := utils.NewQueryTimer("findByCollection", "gallery")
	defer timer.Done()

	cursor, err := r.collection().Find(ctx, bson.M{"collection_id": collectionID}, findNewestFirst())
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error fetching galleries: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Gallery{}
	if err := cursor.All(ctx, &results); err != nil {
		timer.Fail()
		return nil, fmt.Errorf("error decoding gallery results: %w", err)
	}
	return results, nil
}

func (r *galleryRepository) List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryView, error) {
	timer := utils.NewQueryTimer("list", "gallery")
	defer timer.Done()

	match := utils.SearchFilter("name", filter.Query, filter.Active)
	if filter.CollectionID != nil {
		match["collection_id"] = *filter.CollectionID
	}
	pipeline := joinParent(matchSorted(match), database.CollectionsCollection, "collection_id", "collection",
		"name", "images", "active", "created_at", "updated_at")

	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error listing galleries: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.GalleryView{}
	if err := cursor.All(ctx, &results); err != nil {
		timer.Fail()
		return nil, fmt.Errorf("error decoding gallery results: %w", err)
	}
	return results, nil
}

func (r *galleryRepository) Update(ctx context.Context, galleryID primitive.ObjectID, updateFields bson.M) (*models.Gallery, error) {
	timer := utils.NewQueryTimer("update", "gallery")
	defer timer.Done()

	var gallery models.Gallery
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": galleryID}, bson.M{"$set": updateFields}, updateReturningAfter()).Decode(&gallery)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		timer.Fail()
		log.Error().Err(err).Str("galleryID", galleryID.Hex()).Msg("Error updating gallery")
		return nil, fmt.Errorf("failed to update gallery: %w", err)
	}
	return &gallery, nil
}

func (r *galleryRepository) Delete(ctx context.Context, galleryID primitive.ObjectID) (*mongo.DeleteResult, error) {
	timer := utils.NewQueryTimer("delete", "gallery")
	defer timer.Done()

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": galleryID})
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error deleting gallery: %w", err)
	}
	return result, nil
}

func (r *galleryRepository) DeleteMany(ctx context.Context, galleryIDs []primitive.ObjectID) (int64, error) {
	if len(galleryIDs) == 0 {
		return 0, nil
	}
	timer := utils.NewQueryTimer("deleteMany", "gallery")
	defer timer.Done()

	result, err := r.collection().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": galleryIDs}})
	if err != nil {
		timer.Fail()
		return 0, fmt.Errorf("database error deleting galleries: %w", err)
	}
	return result.DeletedCount, nil
}
