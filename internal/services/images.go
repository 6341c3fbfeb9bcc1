package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"galleria/internal/metrics"
	"galleria/internal/models"
	"galleria/internal/storage"
	"galleria/internal/utils"
)

// uploadAll uploads files into folder. On failure the files already uploaded are removed again.
func uploadAll(ctx context.Context, store storage.ImageStore, files []storage.File, folder string) ([]models.Image, error) {
	images := make([]models.Image, 0, len(files))
	for _, f := range files {
		img, err := store.Upload(ctx, f, folder)
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Str("file", f.Name).Msg("Image upload failed")
			discardImages(ctx, store, images)
			return nil, newError(ErrImageStore, "failed to upload image %q", f.Name)
		}
		images = append(images, img)
	}
	return images, nil
}

// discardImages deletes images one by one. Failures are logged and counted, never returned.
func discardImages(ctx context.Context, store storage.ImageStore, images []models.Image) (deleted, failed int) {
	for _, img := range images {
		if img.RemoteID == "" {
			continue
		}
		if err := store.Delete(ctx, img.RemoteID); err != nil {
			failed++
			metrics.ImageCleanupFailuresTotal.WithLabelValues("delete").Inc()
			log.Warn().Err(err).Str("remoteID", img.RemoteID).Msg("Failed to delete image, continuing")
			continue
		}
		deleted++
	}
	return deleted, failed
}

// sweepFolder removes everything left under folder. Failures are logged and counted, never returned.
func sweepFolder(ctx context.Context, store storage.ImageStore, folder string) bool {
	if err := store.DeleteFolder(ctx, folder); err != nil {
		metrics.ImageCleanupFailuresTotal.WithLabelValues("delete_folder").Inc()
		log.Warn().Err(err).Str("folder", folder).Msg("Failed to sweep image folder, continuing")
		return false
	}
	return true
}

// splitImages partitions current into the images kept and the ones named in remoteIDs.
// Ids that do not belong to current are ignored.
func splitImages(current []models.Image, remoteIDs []string) (kept, removed []models.Image) {
	drop := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		drop[id] = struct{}{}
	}
	kept = []models.Image{}
	for _, img := range current {
		if _, ok := drop[img.RemoteID]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	return kept, removed
}

// folderSegment validates that name can key its own image folder and returns the slug.
func folderSegment(name, entity string) (string, error) {
	slug, err := utils.FolderSegment(name)
	if err != nil {
		return "", newError(ErrValidation, "%s name %q cannot be used as a folder name", entity, name)
	}
	return slug, nil
}

func remoteIDsOf(images []models.Image) []string {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.RemoteID)
	}
	return ids
}

func requireID(id primitive.ObjectID, field string) error {
	if id.IsZero() {
		return newError(ErrValidation, "%s is required", field)
	}
	return nil
}

func notFound(entity string) error {
	return newError(ErrNotFound, "%s not found", entity)
}

func wrapDB(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
