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

const (
	DefaultPageLimit int64 = 10
	MaxPageLimit     int64 = 100
)

type PhotoService interface {
	Create(ctx context.Context, title string, galleryID primitive.ObjectID, files []storage.File) (*models.Photo, error)
	Update(ctx context.Context, photoID primitive.ObjectID, patch models.PhotoPatch, files []storage.File) (*models.Photo, error)
	GetByID(ctx context.Context, photoID primitive.ObjectID) (*models.Photo, error)
	List(ctx context.Context, filter models.PhotoFilter, page, limit int64) (*models.Page[models.PhotoView], error)
	Search(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, error)
	ListByGallery(ctx context.Context, galleryID primitive.ObjectID) ([]models.PhotoView, error)
	ToggleStatus(ctx context.Context, photoID primitive.ObjectID, active *bool) (*models.Photo, error)
}

type photoService struct {
	photoRepo      repositories.PhotoRepository
	galleryRepo    repositories.GalleryRepository
	collectionRepo repositories.CollectionRepository
	images         storage.ImageStore
}

func NewPhotoService(photoRepo repositories.PhotoRepository, galleryRepo repositories.GalleryRepository, collectionRepo repositories.CollectionRepository, images storage.ImageStore) PhotoService {
	return &photoService{photoRepo: photoRepo, galleryRepo: galleryRepo, collectionRepo: collectionRepo, images: images}
}

func (s *photoService) findGallery(ctx context.Context, galleryID primitive.ObjectID) (*models.Gallery, error) {
	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("galleryID", galleryID.Hex()).Msg("Referenced gallery not found")
			return nil, notFound("gallery")
		}
		return nil, wrapDB("failed to find gallery", err)
	}
	return gallery, nil
}

// folderOf is the upload folder of a photo: the folder of its gallery.
func (s *photoService) folderOf(ctx context.Context, gallery *models.Gallery) (string, error) {
	col, err := s.collectionRepo.FindByID(ctx, gallery.CollectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("galleryID", gallery.ID.Hex()).Msg("Gallery has no collection, cannot derive upload folder")
			return "", notFound("collection")
		}
		return "", wrapDB("failed to find collection", err)
	}
	return utils.GalleryFolder(col.Name, gallery.Name), nil
}

func (s *photoService) Create(ctx context.Context, title string, galleryID primitive.ObjectID, files []storage.File) (*models.Photo, error) {
	title = strings.TrimSpace(title)
	log.Debug().Str("title", title).Str("galleryID", galleryID.Hex()).Int("files", len(files)).Msg("Attempting to create photo")

	if title == "" {
		return nil, newError(ErrValidation, "photo title is required")
	}
	if err := requireID(galleryID, "gallery"); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, newError(ErrValidation, "at least one image is required")
	}

	gallery, err := s.findGallery(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	folder, err := s.folderOf(ctx, gallery)
	if err != nil {
		return nil, err
	}

	uploaded, err := uploadAll(ctx, s.images, files, folder)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	photo := &models.Photo{
		ID:        primitive.NewObjectID(),
		Title:     title,
		GalleryID: gallery.ID,
		Images:    uploaded,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.photoRepo.Create(ctx, photo)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		log.Error().Err(err).Str("title", title).Msg("Failed to insert photo")
		return nil, err
	}

	metrics.EntitiesCreatedTotal.WithLabelValues("photo").Inc()
	log.Info().Str("photoID", created.ID.Hex()).Str("galleryID", gallery.ID.Hex()).Msg("Photo created successfully")
	return created, nil
}

func (s *photoService) Update(ctx context.Context, photoID primitive.ObjectID, patch models.PhotoPatch, files []storage.File) (*models.Photo, error) {
	log.Debug().Str("photoID", photoID.Hex()).Msg("Attempting to update photo")

	current, err := s.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	updateFields := bson.M{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, newError(ErrValidation, "photo title cannot be empty")
		}
		if title != current.Title {
			updateFields["title"] = title
		}
	}

	galleryID := current.GalleryID
	var target *models.Gallery
	if patch.GalleryID != nil && *patch.GalleryID != current.GalleryID {
		if err := requireID(*patch.GalleryID, "gallery"); err != nil {
			return nil, err
		}
		if target, err = s.findGallery(ctx, *patch.GalleryID); err != nil {
			return nil, err
		}
		galleryID = target.ID
		updateFields["gallery_id"] = galleryID
	}

	kept, removed := splitImages(current.Images, patch.RemoveImages)
	if len(kept)+len(files) == 0 {
		return nil, newError(ErrValidation, "a photo must keep at least one image")
	}
	if len(removed) == 0 && len(files) == 0 && len(updateFields) == 0 {
		log.Warn().Str("photoID", photoID.Hex()).Msg("No fields to update for photo")
		return nil, newError(ErrValidation, "no fields to update")
	}

	var uploaded []models.Image
	if len(files) > 0 {
		if target == nil {
			if target, err = s.findGallery(ctx, galleryID); err != nil {
				return nil, err
			}
		}
		folder, err := s.folderOf(ctx, target)
		if err != nil {
			return nil, err
		}
		if uploaded, err = uploadAll(ctx, s.images, files, folder); err != nil {
			return nil, err
		}
	}

	if len(removed) > 0 || len(uploaded) > 0 {
		discardImages(ctx, s.images, removed)
		updateFields["images"] = append(kept, uploaded...)
	}
	updateFields["updated_at"] = time.Now().UTC()

	updated, err := s.photoRepo.Update(ctx, photoID, updateFields)
	if err != nil {
		discardImages(ctx, s.images, uploaded)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("photo")
		}
		return nil, err
	}

	if target != nil && galleryID != current.GalleryID {
		log.Warn().
			Str("photoID", photoID.Hex()).
			Str("oldGalleryID", current.GalleryID.Hex()).
			Str("newGalleryID", galleryID.Hex()).
			Strs("remoteIDs", remoteIDsOf(kept)).
			Msg("Photo moved, existing images stay under the old gallery folder")
	}

	log.Info().Str("photoID", photoID.Hex()).Int("removed", len(removed)).Int("added", len(uploaded)).Msg("Photo updated successfully")
	return updated, nil
}

func (s *photoService) GetByID(ctx context.Context, photoID primitive.ObjectID) (*models.Photo, error) {
	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("photoID", photoID.Hex()).Msg("Photo not found")
			return nil, notFound("photo")
		}
		log.Error().Err(err).Str("photoID", photoID.Hex()).Msg("Database error finding photo")
		return nil, wrapDB("failed to find photo", err)
	}
	return photo, nil
}

func (s *photoService) List(ctx context.Context, filter models.PhotoFilter, page, limit int64) (*models.Page[models.PhotoView], error) {
	if page < 1 {
		return nil, newError(ErrValidation, "page must be a positive integer")
	}
	if limit < 1 {
		return nil, newError(ErrValidation, "limit must be a positive integer")
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	result, err := s.photoRepo.Paginate(ctx, filter, page, limit)
	if err != nil {
		log.Error().Err(err).Int64("page", page).Int64("limit", limit).Msg("Database error paginating photos")
		return nil, err
	}
	log.Debug().Int64("total", result.Total).Int64("page", page).Msg("Successfully retrieved photos")
	return result, nil
}

func (s *photoService) Search(ctx context.Context, filter models.PhotoFilter) ([]models.PhotoView, error) {
	results, err := s.photoRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("query", filter.Query).Msg("Database error searching photos")
		return nil, err
	}
	return results, nil
}

func (s *photoService) ListByGallery(ctx context.Context, galleryID primitive.ObjectID) ([]models.PhotoView, error) {
	if _, err := s.findGallery(ctx, galleryID); err != nil {
		return nil, err
	}
	return s.Search(ctx, models.PhotoFilter{GalleryID: &galleryID})
}

func (s *photoService) ToggleStatus(ctx context.Context, photoID primitive.ObjectID, active *bool) (*models.Photo, error) {
	current, err := s.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	next := !current.Active
	if active != nil {
		next = *active
	}
	updated, err := s.photoRepo.Update(ctx, photoID, bson.M{"active": next, "updated_at": time.Now().UTC()})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("photo")
		}
		return nil, err
	}
	log.Info().Str("photoID", photoID.Hex()).Bool("active", next).Msg("Photo status updated")
	return updated, nil
}
