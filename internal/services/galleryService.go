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

type GalleryService interface {
	Create(ctx context.Context, name string, collectionID primitive.ObjectID, files []storage.File) (*models.Gallery, error)
	Update(ctx context.Context, galleryID primitive.ObjectID, patch models.GalleryPatch, files []storage.File) (*models.Gallery, error)
	GetByID(ctx context.Context, galleryID primitive.ObjectID) (*models.Gallery, error)
	List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryView, error)
	ToggleStatus(ctx context.Context, galleryID primitive.ObjectID, active *bool) (*models.Gallery, error)
}

type galleryService struct {
	galleryRepo    repositories.GalleryRepository
	collectionRepo repositories.CollectionRepository
	images         storage.ImageStore
}

func NewGalleryService(galleryRepo repositories.GalleryRepository, collectionRepo repositories.CollectionRepository, images storage.ImageStore) GalleryService {
	return &galleryService{galleryRepo: galleryRepo, collectionRepo: collectionRepo, images: images}
}

func (s *galleryService) findCollection(ctx context.Context, collectionID primitive.ObjectID) (*models.Collection, error) {
	col, err := s.collectionRepo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("collectionID", collectionID.Hex()).Msg("Referenced collection not found")
			return nil, notFound("collection")
		}
		return nil, wrapDB("failed to find collection", err)
	}
	return col, nil
}

// ensureSlugFree reports a conflict when another gallery of the collection already owns slug.
func (s *galleryService) ensureSlugFree(ctx context.Context, collectionID primitive.ObjectID, slug string, self primitive.ObjectID) error {
	existing, err := s.galleryRepo.FindBySlug(ctx, collectionID, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return wrapDB("failed to check gallery name", err)
	}
	if existing.ID == self {
		return nil
	}
	log.Warn().Str("collectionID", collectionID.Hex()).Str("slug", slug).Msg("Gallery name already used in collection")
	return newError(ErrConflict, "a gallery with this name already exists in the collection")
}

func (s *galleryService) Create(ctx context.Context, name string, collectionID primitive.ObjectID, files []storage.File) (*models.Gallery, error) {
	name = strings.TrimSpace(name)
	log.Debug().Str("galleryName", name).Str("collectionID", collectionID.Hex()).Int("files", len(files)).Msg("Attempting to create gallery")

	if name == "" {
		return nil, newError(ErrValidation, "gallery name is required")
	}
	slug, err := folderSegment(name, "gallery")
	if err != nil {
		return nil, err
	}
	if err := requireID(collectionID, "collection"); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, newError(ErrValidation, "at least one image is required")
	}

	col, err := s.findCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, col.ID, slug, primitive.NilObjectID); err != nil {
		return nil, err
	}

	uploaded, err := uploadAll(ctx, s.images, files, utils.GalleryFolder(col.Name, name))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	gallery := &models.Gallery{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Slug:         slug,
		CollectionID: col.ID,
		Images:       uploaded,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.galleryRepo.Create(ctx, gallery)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		if mongo.IsDuplicateKeyError(err) {
			return nil, newError(ErrConflict, "a gallery with this name already exists in the collection")
		}
		log.Error().Err(err).Str("galleryName", name).Msg("Failed to insert gallery")
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues("gallery").Inc()
	log.Info().Str("galleryID", created.ID.Hex()).Str("collectionID", col.ID.Hex()).Msg("Gallery created successfully")
	return created, nil
}

func (s *galleryService) Update(ctx context.Context, galleryID primitive.ObjectID, patch models.GalleryPatch, files []storage.File) (*models.Gallery, error) {
	log.Debug().Str("galleryID", galleryID.Hex()).Msg("Attempting to update gallery")

	current, err := s.GetByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	updateFields := bson.M{}
	name := current.Name
	slug := utils.Slug(current.Name)
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, newError(ErrValidation, "gallery name cannot be empty")
		}
		if name != current.Name {
			if slug, err = folderSegment(name, "gallery"); err != nil {
				return nil, err
			}
			updateFields["name"] = name
			updateFields["slug"] = slug
		}
	}

	collectionID := current.CollectionID
	var target *models.Collection
	if patch.CollectionID != nil && *patch.CollectionID != current.CollectionID {
		if err := requireID(*patch.CollectionID, "collection"); err != nil {
			return nil, err
		}
		if target, err = s.findCollection(ctx, *patch.CollectionID); err != nil {
			return nil, err
		}
		collectionID = target.ID
		updateFields["collection_id"] = collectionID
	}
	_, renamed := updateFields["name"]
	_, moved := updateFields["collection_id"]
	if renamed || moved {
		if err := s.ensureSlugFree(ctx, collectionID, slug, current.ID); err != nil {
			return nil, err
		}
	}

	kept, removed := splitImages(current.Images, patch.RemoveImages)
	if len(kept)+len(files) == 0 {
		return nil, newError(ErrValidation, "a gallery must keep at least one image")
	}
	if len(removed) == 0 && len(files) == 0 && len(updateFields) == 0 {
		log.Warn().Str("galleryID", galleryID.Hex()).Msg("No fields to update for gallery")
		return nil, newError(ErrValidation, "no fields to update")
	}

	var uploaded []models.Image
	if len(files) > 0 {
		if target == nil {
			if target, err = s.findCollection(ctx, collectionID); err != nil {
				return nil, err
			}
		}
		if uploaded, err = uploadAll(ctx, s.images, files, utils.GalleryFolder(target.Name, name)); err != nil {
			return nil, err
		}
	}

	if len(removed) > 0 || len(uploaded) > 0 {
		discardImages(ctx, s.images, removed)
		updateFields["images"] = append(kept, uploaded...)
	}
	updateFields["updated_at"] = time.Now().UTC()

	updated, err := s.galleryRepo.Update(ctx, galleryID, updateFields)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("gallery")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, newError(ErrConflict, "a gallery with this name already exists in the collection")
		}
		return nil, err
	}

	if renamed || moved {
		log.Warn().
			Str("galleryID", galleryID.Hex()).
			Str("oldCollectionID", current.CollectionID.Hex()).
			Str("newCollectionID", collectionID.Hex()).
			Str("oldName", current.Name).
			Str("newName", name).
			Strs("remoteIDs", remoteIDsOf(kept)).
			Msg("Gallery folder changed, existing images stay under the old folder")
	}

	log.Info().Str("galleryID", galleryID.Hex()).Int("removed", len(removed)).Int("added", len(uploaded)).Msg("Gallery updated successfully")
	return updated, nil
}

func (s *galleryService) GetByID(ctx context.Context, galleryID primitive.ObjectID) (*models.Gallery, error) {
	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("galleryID", galleryID.Hex()).Msg("Gallery not found")
			return nil, notFound("gallery")
		}
		log.Error().Err(err).Str("galleryID", galleryID.Hex()).Msg("Database error finding gallery")
		return nil, wrapDB("failed to find gallery", err)
	}
	return gallery, nil
}

func (s *galleryService) List(ctx context.Context, filter models.GalleryFilter) ([]models.GalleryView, error) {
	results, err := s.galleryRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("query", filter.Query).Msg("Database error listing galleries")
		return nil, err
	}
	log.Debug().Int("count", len(results)).Msg("Successfully retrieved galleries")
	return results, nil
}

func (s *galleryService) ToggleStatus(ctx context.Context, galleryID primitive.ObjectID, active *bool) (*models.Gallery, error) {
	current, err := s.GetByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}

	next := !current.Active
	if active != nil {
		next = *active
	}
	updated, err := s.galleryRepo.Update(ctx, galleryID, bson.M{"active": next, "updated_at": time.Now().UTC()})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("gallery")
		}
		return nil, err
	}
	log.Info().Str("galleryID", galleryID.Hex()).Bool("active", next).Msg("Gallery status updated")
	return updated, nil
}
