package handlers

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"galleria/internal/config"
	"galleria/internal/models"
	"galleria/internal/services"
	"galleria/internal/utils"
)

type GalleryHandler struct {
	galleryService   services.GalleryService
	lifecycleService services.LifecycleService
	uploads          config.UploadConfig
}

func NewGalleryHandler(galleryService services.GalleryService, lifecycleService services.LifecycleService, uploads config.UploadConfig) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService, lifecycleService: lifecycleService, uploads: uploads}
}

// formObjectID parses an id form field. Empty input gives the nil id.
func formObjectID(raw, field string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &services.Error{Kind: services.ErrValidation, Message: "invalid " + field + " id"}
	}
	return id, nil
}

func optionalFormObjectID(f *form, key string) (*primitive.ObjectID, error) {
	if !f.has(key) {
		return nil, nil
	}
	id, err := formObjectID(f.get(key), key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *GalleryHandler) CreateGallery(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r, h.uploads, "images", "images[]")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	collectionID, err := formObjectID(f.get("collection"), "collection")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}

	gallery, err := h.galleryService.Create(r.Context(), f.get("galleryName"), collectionID, f.files)
	if err != nil {
		writeError(w, err, "Failed to create gallery")
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Gallery created successfully", gallery, nil)
}

func (h *GalleryHandler) UpdateGallery(w http.ResponseWriter, r *http.Request) {
	galleryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	f, err := readForm(w, r, h.uploads, "images", "images[]")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	collectionID, err := optionalFormObjectID(f, "collection")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	patch := models.GalleryPatch{
		Name:         f.optional("galleryName"),
		CollectionID: collectionID,
		RemoveImages: f.list("removeImages"),
	}

	gallery, err := h.galleryService.Update(r.Context(), galleryID, patch, f.files)
	if err != nil {
		writeError(w, err, "Failed to update gallery")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Gallery updated successfully", gallery, nil)
}

func (h *GalleryHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	galleryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	report, err := h.lifecycleService.DeleteGallery(r.Context(), galleryID)
	if err != nil {
		writeError(w, err, "Failed to delete gallery")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Gallery deleted successfully", report, nil)
}

// GetGalleries serves both the listing and the search route.
func (h *GalleryHandler) GetGalleries(w http.ResponseWriter, r *http.Request) {
	search, ok := searchFilterFromQuery(w, r)
	if !ok {
		return
	}
	collectionID, err := utils.GetObjectIDQuery(r, "collection")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.galleryService.List(r.Context(), models.GalleryFilter{SearchFilter: search, CollectionID: collectionID})
	if err != nil {
		writeError(w, err, "Failed to fetch galleries")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", results, map[string]interface{}{"count": len(results)})
}

func (h *GalleryHandler) GetGallery(w http.ResponseWriter, r *http.Request) {
	galleryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	gallery, err := h.galleryService.GetByID(r.Context(), galleryID)
	if err != nil {
		writeError(w, err, "Failed to fetch gallery")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", gallery, nil)
}

func (h *GalleryHandler) ToggleGalleryStatus(w http.ResponseWriter, r *http.Request) {
	galleryID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	active, ok := statusFromBody(w, r)
	if !ok {
		return
	}

	gallery, err := h.galleryService.ToggleStatus(r.Context(), galleryID, active)
	if err != nil {
		writeError(w, err, "Failed to update gallery status")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Gallery status updated successfully", gallery, nil)
}
