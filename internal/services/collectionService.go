package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/metrics"
	"galleria/internal/models"
	"galleria/internal/repositories"
	"galleria/internal/storage"
	"galleria/internal/utils"
)

// CollectionService defines the interface for collection-related business logic.
// Deletion lives in LifecycleService.
type CollectionService interface {
	Create(ctx context.Context, name string, thumbnail *storage.File) (*models.Collection, error)
	Update(ctx context.Context, collectionID primitive.ObjectID, patch models.CollectionPatch, thumbnail *storage.File) (*models.Collection, error)
	GetByID(ctx context.Context, collectionID primitive.ObjectID) (*models.Collection, error)
	List(ctx context.Context) ([]models.Collection, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]models.Collection, error)
	ToggleStatus(ctx context.Context, collectionID primitive.ObjectID, active *bool) (*models.Collection, error)
}

type collectionService struct {
	collectionRepo repositories.CollectionRepository
	images         storage.ImageStore
}

func NewCollectionService(collectionRepo repositories.CollectionRepository, images storage.ImageStore) CollectionService {
	return &collectionService{collectionRepo: collectionRepo, images: images}
}

func (s *collectionService) Create(ctx context.Context, name string, thumbnail *storage.File) (*models.Collection, error) {
	name = strings.TrimSpace(name)
	log.Debug().Str("collectionName", name).Msg("Attempting to create collection")

	if name == "" {
		return nil, newError(ErrValidation, "collection name is required")
	}
	if thumbnail == nil {
		return nil, newError(ErrValidation, "thumbnail image is required")
	}
	slug, err := folderSegment(name, "collection")
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	uploaded, err := uploadAll(ctx, s.images, []storage.File{*thumbnail}, utils.CollectionFolder(name))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	col := &models.Collection{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Slug:      slug,
		Thumbnail: uploaded[0],
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.collectionRepo.Create(ctx, col)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("collectionName", name).Msg("Collection name already exists")
			return nil, newError(ErrConflict, "collection name already exists")
		}
		log.Error().Err(err).Str("collectionName", name).Msg("Failed to insert collection")
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues("collection").Inc()
	log.Info().Str("collectionID", created.ID.Hex()).Str("collectionName", name).Msg("Collection created successfully")
	return created, nil
}

// ensureNameFree reports a conflict when another collection already owns the folder slug.
// Names differing only in case or spacing share a slug.
func (s *collectionService) ensureNameFree(ctx context.Context, name, slug string, self primitive.ObjectID) error {
	existing, err := s.collectionRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		log.Error().Err(err).Str("collectionName", name).Msg("Database error checking collection name")
		return wrapDB("failed to check collection name", err)
	}
	if existing.ID == self {
		return nil
	}
	log.Warn().Str("collectionName", name).Msg("Collection name already exists")
	return newError(ErrConflict, "collection name already exists")
}

func (s *collectionService) Update(ctx context.Context, collectionID primitive.ObjectID, patch models.CollectionPatch, thumbnail *storage.File) (*models.Collection, error) {
	log.Debug().Str("collectionID", collectionID.Hex()).Msg("Attempting to update collection")

	current, err := s.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	updateFields := bson.M{}
	name := current.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, newError(ErrValidation, "collection name cannot be empty")
		}
		if name != current.Name {
			slug, err := folderSegment(name, "collection")
			if err != nil {
				return nil, err
			}
			if err := s.ensureNameFree(ctx, name, slug, current.ID); err != nil {
				return nil, err
			}
			updateFields["name"] = name
			updateFields["slug"] = slug
		}
	}

	var replaced []models.Image
	var uploaded []models.Image
	if thumbnail != nil {
		uploaded, err = uploadAll(ctx, s.images, []storage.File{*thumbnail}, utils.CollectionFolder(name))
		if err != nil {
			return nil, err
		}
		updateFields["thumbnail"] = uploaded[0]
		replaced = append(replaced, current.Thumbnail)
	}

	if len(updateFields) == 0 {
		log.Warn().Str("collectionID", collectionID.Hex()).Msg("No fields to update for collection")
		return nil, newError(ErrValidation, "no fields to update")
	}
	updateFields["updated_at"] = time.Now().UTC()

	updated, err := s.collectionRepo.Update(ctx, collectionID, updateFields)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("collection")
		}
		if mongo.IsDuplicateKeyError(err) {
			log.Warn().Str("collectionID", collectionID.Hex()).Msg("Collection name already exists during update")
			return nil, newError(ErrConflict, "collection name already exists")
		}
		return nil, err
	}

	// The old thumbnail goes only once nothing references it.
	discardImages(ctx, s.images, replaced)

	if oldFolder, newFolder := utils.CollectionFolder(current.Name), utils.CollectionFolder(name); oldFolder != newFolder {
		log.Warn().
			Str("collectionID", collectionID.Hex()).
			Str("oldFolder", oldFolder).
			Str("newFolder", newFolder).
			Msg("Collection folder changed, existing gallery and photo images stay under the old folder")
	}

	log.Info().Str("collectionID", collectionID.Hex()).Msg("Collection updated successfully")
	return updated, nil
}

func (s *collectionService) GetByID(ctx context.Context, collectionID primitive.ObjectID) (*models.Collection, error) {
	col, err := s.collectionRepo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("collectionID", collectionID.Hex()).Msg("Collection not found")
			return nil, notFound("collection")
		}
		log.Error().Err(err).Str("collectionID", collectionID.Hex()).Msg("Database error finding collection")
		return nil, wrapDB("failed to find collection", err)
	}
	return col, nil
}

func (s *collectionService) List(ctx context.Context) ([]models.Collection, error) {
	results, err := s.collectionRepo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Database error listing collections")
		return nil, err
	}
	log.Debug().Int("count", len(results)).Msg("Successfully retrieved collections")
	return results, nil
}

func (s *collectionService) Search(ctx context.Context, filter models.SearchFilter) ([]models.Collection, error) {
	results, err := s.collectionRepo.Search(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("query", filter.Query).Msg("Database error searching collections")
		return nil, err
	}
	return results, nil
}

func (s *collectionService) ToggleStatus(ctx context.Context, collectionID primitive.ObjectID, active *bool) (*models.Collection, error) {
	current, err := s.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	next := !current.Active
	if active != nil {
		next = *active
	}
	updated, err := s.collectionRepo.Update(ctx, collectionID, bson.M{"active": next, "updated_at": time.Now().UTC()})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("collection")
		}
		return nil, err
	}
	log.Info().Str("collectionID", collectionID.Hex()).Bool("active", next).Msg("Collection status updated")
	return updated, nil
}
