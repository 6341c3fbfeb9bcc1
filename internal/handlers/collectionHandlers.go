package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"galleria/internal/config"
	"galleria/internal/models"
	"galleria/internal/services"
	"galleria/internal/storage"
	"galleria/internal/utils"
)

type CollectionHandler struct {
	collectionService services.CollectionService
	lifecycleService  services.LifecycleService
	uploads           config.UploadConfig
}

func NewCollectionHandler(collectionService services.CollectionService, lifecycleService services.LifecycleService, uploads config.UploadConfig) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService, lifecycleService: lifecycleService, uploads: uploads}
}

// singleFile returns the only uploaded file, nil when none was sent.
func singleFile(files []storage.File, field string) (*storage.File, error) {
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return &files[0], nil
	default:
		return nil, &services.Error{Kind: services.ErrValidation, Message: "only one " + field + " image is allowed"}
	}
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r, h.uploads, "thumbnail")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	thumbnail, err := singleFile(f.files, "thumbnail")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}

	col, err := h.collectionService.Create(r.Context(), f.get("collectionName"), thumbnail)
	if err != nil {
		writeError(w, err, "Failed to create collection")
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Collection created successfully", col, nil)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	f, err := readForm(w, r, h.uploads, "thumbnail")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}
	defer f.Close()

	thumbnail, err := singleFile(f.files, "thumbnail")
	if err != nil {
		writeError(w, err, "Failed to read request")
		return
	}

	patch := models.CollectionPatch{Name: f.optional("collectionName")}
	col, err := h.collectionService.Update(r.Context(), collectionID, patch, thumbnail)
	if err != nil {
		writeError(w, err, "Failed to update collection")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Collection updated successfully", col, nil)
}

func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	report, err := h.lifecycleService.DeleteCollection(r.Context(), collectionID)
	if err != nil {
		writeError(w, err, "Failed to delete collection")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Collection and its galleries deleted successfully", report, nil)
}

func (h *CollectionHandler) GetCollections(w http.ResponseWriter, r *http.Request) {
	results, err := h.collectionService.List(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch collections")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", results, map[string]interface{}{"count": len(results)})
}

func (h *CollectionHandler) SearchCollections(w http.ResponseWriter, r *http.Request) {
	filter, ok := searchFilterFromQuery(w, r)
	if !ok {
		return
	}

	results, err := h.collectionService.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to search collections")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", results, map[string]interface{}{"count": len(results)})
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collectionID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	col, err := h.collectionService.GetByID(r.Context(), collectionID)
	if err != nil {
		writeError(w, err, "Failed to fetch collection")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "", col, nil)
}

func (h *CollectionHandler) ToggleCollectionStatus(w http.ResponseWriter, r *http.Request) {
	collectionID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}
	active, ok := statusFromBody(w, r)
	if !ok {
		return
	}

	col, err := h.collectionService.ToggleStatus(r.Context(), collectionID, active)
	if err != nil {
		writeError(w, err, "Failed to update collection status")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Collection status updated successfully", col, nil)
}

// searchFilterFromQuery reads q and status. It writes a 400 and returns false on bad input.
func searchFilterFromQuery(w http.ResponseWriter, r *http.Request) (models.SearchFilter, bool) {
	active, err := utils.GetBoolQuery(r, "status")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return models.SearchFilter{}, false
	}
	return models.SearchFilter{Query: r.URL.Query().Get("q"), Active: active}, true
}

// statusFromBody reads an optional {"active": bool} body. No body means toggle.
func statusFromBody(w http.ResponseWriter, r *http.Request) (*bool, bool) {
	var body struct {
		Active *bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msg("Invalid request body for status update")
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return body.Active, true
}
