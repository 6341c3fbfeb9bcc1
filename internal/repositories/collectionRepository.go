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

type CollectionRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, col *models.Collection) (*models.Collection, error)
	FindByID(ctx context.Context, collectionID primitive.ObjectID) (*models.Collection, error)
	// FindBySlug finds the collection owning a folder slug.
	FindBySlug(ctx context.Context, slug string) (*models.Collection, error)
	List(ctx context.Context) ([]models.Collection, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]models.Collection, error)
	Update(ctx context.Context, collectionID primitive.ObjectID, updateFields bson.M) (*models.Collection, error)
	Delete(ctx context.Context, collectionID primitive.ObjectID) (*mongo.DeleteResult, error)
}

type collectionRepository struct {
	db database.Service
}

func NewCollectionRepository(db database.Service) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) collection() *mongo.Collection {
	return r.db.Database().Collection(database.CollectionsCollection)
}

func (r *collectionRepository) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "name", Value: 1}}, "collection name", utils.CaseInsensitive); err != nil {
		return err
	}
	if err := utils.CreateUniqueIndex(ctx, r.collection(), bson.D{{Key: "slug", Value: 1}}, "collection slug", nil); err != nil {
		return err
	}
	return utils.CreateIndex(ctx, r.collection(), newestFirst)
}

func (r *collectionRepository) Create(ctx context.Context, col *models.Collection) (*models.Collection, error) {
	timer := utils.NewQueryTimer("create", "collection")
	defer timer.Done()

	res, err := r.collection().InsertOne(ctx, col)
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("failed to insert collection: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		col.ID = id
	}
	return col, nil
}

func (r *collectionRepository) FindByID(ctx context.Context, collectionID primitive.ObjectID) (*models.Collection, error) {
	timer := utils.NewQueryTimer("findByID", "collection")
	defer timer.Done()

	var col models.Collection
	err := r.collection().FindOne(ctx, bson.M{"_id": collectionID}).Decode(&col)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &col, nil
}

func (r *collectionRepository) FindBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	timer := utils.NewQueryTimer("findBySlug", "collection")
	defer timer.Done()

	var col models.Collection
	err := r.collection().FindOne(ctx, bson.M{"slug": slug}).Decode(&col)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			timer.Fail()
		}
		return nil, err
	}
	return &col, nil
}

func (r *collectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	return r.find(ctx, "list", bson.M{})
}

func (r *collectionRepository) Search(ctx context.Context, filter models.SearchFilter) ([]models.Collection, error) {
	return r.find(ctx, "search", utils.SearchFilter("name", filter.Query, filter.Active))
}

func (r *collectionRepository) find(ctx context.Context, queryType string, filter bson.M) ([]models.Collection, error) {
	timer := utils.NewQueryTimer(queryType, "collection")
	defer timer.Done()

	cursor, err := r.collection().Find(ctx, filter, findNewestFirst())
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error fetching collections: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Collection{}
	if err := cursor.All(ctx, &results); err != nil {
		timer.Fail()
		return nil, fmt.Errorf("error decoding collection results: %w", err)
	}
	return results, nil
}

func (r *collectionRepository) Update(ctx context.Context, collectionID primitive.ObjectID, updateFields bson.M) (*models.Collection, error) {
	timer := utils.NewQueryTimer("update", "collection")
	defer timer.Done()

	var col models.Collection
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": collectionID}, bson.M{"$set": updateFields}, updateReturningAfter()).Decode(&col)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		timer.Fail()
		log.Error().Err(err).Str("collectionID", collectionID.Hex()).Msg("Error updating collection")
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	return &col, nil
}

func (r *collectionRepository) Delete(ctx context.Context, collectionID primitive.ObjectID) (*mongo.DeleteResult, error) {
	timer := utils.NewQueryTimer("delete", "collection")
	defer timer.Done()

	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": collectionID})
	if err != nil {
		timer.Fail()
		return nil, fmt.Errorf("database error deleting collection: %w", err)
	}
	return result, nil
}
