package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"galleria/internal/models"
	"galleria/internal/services"
	"galleria/internal/utils"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Warn().Err(err).Msg("Invalid request body for Register")
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	admin, err := a.authService.Register(r.Context(), creds)
	if err != nil {
		writeError(w, err, "Failed to register admin")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Admin registered successfully",
		"admin":   admin,
	})
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Warn().Err(err).Msg("Invalid request body for Login")
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	admin, token, err := a.authService.Login(r.Context(), creds)
	if err != nil {
		writeError(w, err, "Failed to log in")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged in successfully",
		"admin":   admin,
		"token":   token,
	})
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := utils.TokenFromContext(r.Context())
	if err := a.authService.Logout(r.Context(), token); err != nil {
		writeError(w, err, "Failed to log out")
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Logged out successfully", nil, nil)
}
