package handlers

import (
	"net/http"

	"galleria/internal/config"
	"galleria/internal/models"
	"galleria/internal/services"
	"galleria/internal/utils"
)

type PhotoHandler struct {
	photoService     services.PhotoService
	lifecycleService services.LifecycleService
	uploads          config.UploadConfig
}

func NewPhotoHandler(photoService services.PhotoService, lifecycleService services.LifecycleService, uploads config.UploadConfig) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, lifecycleService: lifecycleService, uploads: uploads}
}

func (h *PhotoHandler) CreatePhoto(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r, h.uploads, "images", "images[]")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	galleryID, err := formObjectID(f.get("gallery"), "gallery")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}

	photo, err := h.photoService.Create(r.Context(), f.get("title"), galleryID, f.files)
	if err != nil {
		writeError(w, err, "Failed to create photo")
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Photo created successfully", photo, nil)
}

func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	f, err := readForm(w, r, h.uploads, "images", "images[]")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	galleryID, err := optionalFormObjectID(f, "gallery")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	patch := models.PhotoPatch{
		Title:        f.optional("title"),
		GalleryID:    galleryID,
		RemoveImages: f.list("removeImages"),
	}

	photo, err := h.photoService.Update(r.Context(), photoID, patch, f.files)
	if err != nil {
		writeError(w, err, "Failed to update photo")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Photo updated successfully", photo, nil)
}

func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	report, err := h.lifecycleService.DeletePhoto(r.Context(), photoID)
	if err != nil {
		writeError(w, err, "Failed to delete photo")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Photo deleted successfully", report, nil)
}

func photoFilterFromQuery(w http.ResponseWriter, r *http.Request) (models.PhotoFilter, bool) {
	search, ok := searchFilterFromQuery(w, r)
	if !ok {
		return models.PhotoFilter{}, false
	}
	galleryID, err := utils.GetObjectIDQuery(r, "gallery")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return models.PhotoFilter{}, false
	}
	return models.PhotoFilter{SearchFilter: search, GalleryID: galleryID}, true
}

func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	filter, ok := photoFilterFromQuery(w, r)
	if !ok {
		return
	}
	page, err := utils.GetPositiveIntQuery(r, "page", 1)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := utils.GetPositiveIntQuery(r, "limit", services.DefaultPageLimit)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.photoService.List(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, err, "Failed to fetch photos")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", result.Data, map[string]interface{}{
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

func (h *PhotoHandler) SearchPhotos(w http.ResponseWriter, r *http.Request) {
	filter, ok := photoFilterFromQuery(w, r)
	if !ok {
		return
	}

	results, err := h.photoService.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to search photos")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", results, map[string]interface{}{"count": len(results)})
}

func (h *PhotoHandler) GetPhotosByGallery(w http.ResponseWriter, r *http.Request) {
	galleryID, err := utils.GetObjectIDFromVars(w, r, "galleryId")
	if err != nil {
		return
	}

	results, err := h.photoService.ListByGallery(r.Context(), galleryID)
	if err != nil {
		writeError(w, err, "Failed to fetch photos")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", results, map[string]interface{}{"count": len(results)})
}

func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	photo, err := h.photoService.GetByID(r.Context(), photoID)
	if err != nil {
		writeError(w, err, "Failed to fetch photo")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", photo, nil)
}

func (h *PhotoHandler) TogglePhotoStatus(w http.ResponseWriter, r *http.Request) {
	photoID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	active, ok := statusFromBody(w, r)
	if !ok {
		return
	}

	photo, err := h.photoService.ToggleStatus(r.Context(), photoID, active)
	if err != nil {
		writeError(w, err, "Failed to update photo status")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Photo status updated successfully", photo, nil)
}
