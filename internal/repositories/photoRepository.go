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

type PhotoRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	FindByID(ctx context.Context, photoID primitive.ObjectID) (*models.Photo, error)
	// List returns photos joined with their gallery, filtered and newest first.
	List(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, error)
	Paginate(ctx context.Context, filter models.PhotoFilter, page, limit int64) (*models.Page[models.PhotoView], error)
	Update(ctx context.Context, photoID primitive.ObjectID, updateFields bson.M) (*models.Photo, error)
	Delete(ctx context.Context, photoID primitive.ObjectID) (*mongo.DeleteResult, error)
	DeleteByGalleries(ctx context.Context, galleryIDs []primitive.ObjectID) (int64, error)
}

type photoRepository struct {
	db database.Service
}

func NewPhotoRepository(db database.Service) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.PhotosCollection)
}

func (r *photoRepository) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateIndex(ctx, r.collection(), bson.D{{Key: "gallery_id", Value: 1}}); err != nil {
		return err
	}
	return utils.CreateIndex(ctx, r.collection(), newestFirst)
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	timer := utils.NewQueryTimer("create", "photo")
	defer timer.Done()

	res, err := r.collection().InsertOne(ctx, photo)
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("failed to insert photo: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		photo.ID = id
	}
	return photo, nil
}

func (r *photoRepository) FindByID(ctx context.Context, photoID primitive.ObjectID) (*models.Photo, error) {
	timer := utils.NewQueryTimer("findByID", "photo")
	defer timer.Done()

	var photo models.Photo
	err := r.collection().FindOne(ctx, bson.M{"_id": photoID}).Decode(&photo)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &photo, nil
}

func photoMatch(filter models.PhotoFilter) bson.M {
	match := utils.SearchFilter("title", filter.Query, filter.Active)
	if filter.GalleryID != nil {
		match["gallery_id"] = *filter.GalleryID
	}
	return match
}

func photoView(pipeline mongo.Pipeline) mongo.Pipeline {
	return joinParent(pipeline, database.GalleriesCollection, "gallery_id", "gallery",
		"title", "images", "active", "created_at", "updated_at")
}

func (r *photoRepository) List(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, error) {
	timer := utils.NewQueryTimer("list", "photo")
	defer timer.Done()

	cursor, err := r.collection().Aggregate(ctx, photoView(matchSorted(photoMatch(filter))))
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error listing photos: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.PhotoView{}
	if err := cursor.All(ctx, &results); err != nil {
		timer.Fail()
		return nil, fmt.Errorf("error decoding photo results: %w", err)
	}
	return results, nil
}

func (r *photoRepository) Paginate(ctx context.Context, filter models.PhotoFilter, page, limit int64) (*models.Page[models.PhotoView], error) {
	timer := utils.NewQueryTimer("paginate", "photo")
	defer timer.Done()

	pipeline := facetPage(photoView(matchSorted(photoMatch(filter))), page, limit)
	cursor, err := r.collection().Aggregate(ctx, pipeline)
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error paginating photos: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []facetResult[models.PhotoView]
	if err := cursor.All(ctx, &facets); err != nil {
		timer.Fail()
		return nil, fmt.Errorf("error decoding photo page: %w", err)
	}

	result := &models.Page[models.PhotoView]{Page: page, Limit: limit, Data: []models.PhotoView{}}
	if len(facets) > 0 {
		result.Total = facets[0].count()
		if facets[0].Data != nil {
			result.Data = facets[0].Data
		}
	}
	result.TotalPages = utils.TotalPages(result.Total, limit)
	return result, nil
}

func (r *photoRepository) Update(ctx context.Context, photoID primitive.ObjectID, updateFields bson.M) (*models.Photo, error) {
	timer := utils.NewQueryTimer("update", "photo")
	defer timer.Done()

	var photo models.Photo
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": photoID}, bson.M{"$set": updateFields}, updateReturningAfter()).Decode(&photo)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		timer.Fail()
		log.Error().Err(err).Str("photoID", photoID.Hex()).Msg("Error updating photo")
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}
	return &photo, nil
}

func (r *photoRepository) Delete(ctx context.Context, photoID primitive.ObjectID) (*mongo.DeleteResult, error) {
	timer := utils.NewQueryTimer("delete", "photo")
	defer timer.Done()

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": photoID})
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error deleting photo: %w", err)
	}
	return result, nil
}

func (r *photoRepository) DeleteByGalleries(ctx context.Context, galleryIDs []primitive.ObjectID) (int64, error) {
	if len(galleryIDs) == 0 {
		return 0, nil
	}
	timer := utils.NewQueryTimer("deleteByGalleries", "photo")
	defer timer.Done()

	result, err := r.collection().DeleteMany(ctx, bson.M{"gallery_id": bson.M{"$in": galleryIDs}})
	if err != nil {
		timer.Fail()
		return 0, fmt.Errorf("database error deleting photos: %w", err)
	}
	return result.DeletedCount, nil
}
