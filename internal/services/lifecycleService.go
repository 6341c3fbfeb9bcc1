package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"galleria/internal/metrics"
	"galleria/internal/models"
	"galleria/internal/repositories"
	"galleria/internal/storage"
	"galleria/internal/utils"
)

// DeleteReport summarizes what a delete removed. Image failures never fail the delete.
type DeleteReport struct {
	GalleriesDeleted int64 `json:"galleriesDeleted"`
	PhotosDeleted    int64 `json:"photosDeleted"`
	ImagesDeleted    int   `json:"imagesDeleted"`
	ImageFailures    int   `json:"imageFailures"`
	FolderSwept      bool  `json:"folderSwept"`
}

func (r *DeleteReport) discard(ctx context.Context, store storage.ImageStore, images []models.Image) {
	deleted, failed := discardImages(ctx, store, images)
	r.ImagesDeleted += deleted
	r.ImageFailures += failed
}

// LifecycleService deletes entities together with their dependents and stored images.
type LifecycleService interface {
	DeleteCollection(ctx context.Context, collectionID primitive.ObjectID) (*DeleteReport, error)
	DeleteGallery(ctx context.Context, galleryID primitive.ObjectID) (*DeleteReport, error)
	DeletePhoto(ctx context.Context, photoID primitive.ObjectID) (*DeleteReport, error)
}

type lifecycleService struct {
	collectionRepo repositories.CollectionRepository
	galleryRepo    repositories.GalleryRepository
	photoRepo      repositories.PhotoRepository
	images         storage.ImageStore
}

func NewLifecycleService(collectionRepo repositories.CollectionRepository, galleryRepo repositories.GalleryRepository, photoRepo repositories.PhotoRepository, images storage.ImageStore) LifecycleService {
	return &lifecycleService{
		collectionRepo: collectionRepo,
		galleryRepo:    galleryRepo,
		photoRepo:      photoRepo,
		images:         images,
	}
}

// sweep deletes folder only when every name maps to exactly one folder segment,
// so an empty or dot segment can never widen the prefix to a parent folder.
func (s *lifecycleService) sweep(ctx context.Context, folder string, names ...string) bool {
	for _, n := range names {
		if _, err := utils.FolderSegment(n); err != nil {
			log.Warn().Str("folder", folder).Str("name", n).Msg("Refusing to sweep folder with an unsafe segment")
			return false
		}
	}
	return sweepFolder(ctx, s.images, folder)
}

func (s *lifecycleService) DeleteCollection(ctx context.Context, collectionID primitive.ObjectID) (*DeleteReport, error) {
	log.Debug().Str("collectionID", collectionID.Hex()).Msg("Attempting to delete collection")

	col, err := s.collectionRepo.FindByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("collectionID", collectionID.Hex()).Msg("Collection not found for delete")
			return nil, notFound("collection")
		}
		return nil, wrapDB("failed to find collection", err)
	}
	folder := utils.CollectionFolder(col.Name)

	galleries, err := s.galleryRepo.FindByCollection(ctx, col.ID)
	if err != nil {
		log.Error().Err(err).Str("collectionID", col.ID.Hex()).Msg("Failed to enumerate galleries of collection")
		return nil, err
	}

	report := &DeleteReport{}
	galleryIDs := make([]primitive.ObjectID, 0, len(galleries))
	for _, g := range galleries {
		report.discard(ctx, s.images, g.Images)
		galleryIDs = append(galleryIDs, g.ID)
	}

	// Photo assets live below the collection folder and go with the sweep.
	if report.PhotosDeleted, err = s.photoRepo.DeleteByGalleries(ctx, galleryIDs); err != nil {
		log.Error().Err(err).Str("collectionID", col.ID.Hex()).Msg("Failed to delete photos of collection")
		return nil, err
	}
	if report.GalleriesDeleted, err = s.galleryRepo.DeleteMany(ctx, galleryIDs); err != nil {
		log.Error().Err(err).Str("collectionID", col.ID.Hex()).Msg("Failed to delete galleries of collection")
		return nil, err
	}

	report.discard(ctx, s.images, []models.Image{col.Thumbnail})
	report.FolderSwept = s.sweep(ctx, folder, col.Name)

	res, err := s.collectionRepo.Delete(ctx, col.ID)
	if err != nil {
		log.Error().Err(err).Str("collectionID", col.ID.Hex()).Msg("Failed to delete collection document")
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, notFound("collection")
	}

	metrics.CascadeDeletesTotal.WithLabelValues("collection").Inc()
	metrics.DocumentsCascadedTotal.WithLabelValues("gallery").Add(float64(report.GalleriesDeleted))
	metrics.DocumentsCascadedTotal.WithLabelValues("photo").Add(float64(report.PhotosDeleted))
	log.Info().
		Str("collectionID", col.ID.Hex()).
		Int64("galleries", report.GalleriesDeleted).
		Int64("photos", report.PhotosDeleted).
		Int("imageFailures", report.ImageFailures).
		Msg("Collection deleted successfully")
	return report, nil
}

func (s *lifecycleService) DeleteGallery(ctx context.Context, galleryID primitive.ObjectID) (*DeleteReport, error) {
	log.Debug().Str("galleryID", galleryID.Hex()).Msg("Attempting to delete gallery")

	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("galleryID", galleryID.Hex()).Msg("Gallery not found for delete")
			return nil, notFound("gallery")
		}
		return nil, wrapDB("failed to find gallery", err)
	}

	report := &DeleteReport{}
	report.discard(ctx, s.images, gallery.Images)

	if report.PhotosDeleted, err = s.photoRepo.DeleteByGalleries(ctx, []primitive.ObjectID{gallery.ID}); err != nil {
		log.Error().Err(err).Str("galleryID", gallery.ID.Hex()).Msg("Failed to delete photos of gallery")
		return nil, err
	}

	col, err := s.collectionRepo.FindByID(ctx, gallery.CollectionID)
	switch {
	case err == nil:
		report.FolderSwept = s.sweep(ctx, utils.GalleryFolder(col.Name, gallery.Name), col.Name, gallery.Name)
	case errors.Is(err, mongo.ErrNoDocuments):
		log.Warn().Str("galleryID", gallery.ID.Hex()).Str("collectionID", gallery.CollectionID.Hex()).Msg("Parent collection missing, skipping folder sweep")
	default:
		log.Warn().Err(err).Str("galleryID", gallery.ID.Hex()).Msg("Could not load parent collection, skipping folder sweep")
	}

	res, err := s.galleryRepo.Delete(ctx, gallery.ID)
	if err != nil {
		log.Error().Err(err).Str("galleryID", gallery.ID.Hex()).Msg("Failed to delete gallery document")
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, notFound("gallery")
	}

	metrics.CascadeDeletesTotal.WithLabelValues("gallery").Inc()
	metrics.DocumentsCascadedTotal.WithLabelValues("photo").Add(float64(report.PhotosDeleted))
	log.Info().Str("galleryID", gallery.ID.Hex()).Int64("photos", report.PhotosDeleted).Msg("Gallery deleted successfully")
	return report, nil
}

func (s *lifecycleService) DeletePhoto(ctx context.Context, photoID primitive.ObjectID) (*DeleteReport, error) {
	log.Debug().Str("photoID", photoID.Hex()).Msg("Attempting to delete photo")

	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Warn().Str("photoID", photoID.Hex()).Msg("Photo not found for delete")
			return nil, notFound("photo")
		}
		return nil, wrapDB("failed to find photo", err)
	}

	report := &DeleteReport{}
	report.discard(ctx, s.images, photo.Images)

	res, err := s.photoRepo.Delete(ctx, photo.ID)
	if err != nil {
		log.Error().Err(err).Str("photoID", photo.ID.Hex()).Msg("Failed to delete photo document")
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, notFound("photo")
	}

	metrics.CascadeDeletesTotal.WithLabelValues("photo").Inc()
	log.Info().Str("photoID", photo.ID.Hex()).Msg("Photo deleted successfully")
	return report, nil
}
