package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshalling JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// RespondSuccess writes the {success:true, message?, data} envelope. Extra fields are merged in.
func RespondSuccess(w http.ResponseWriter, code int, message string, data interface{}, extra map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	RespondWithJSON(w, code, body)
}

// SendJSONError writes the {success:false, message} envelope.
func SendJSONError(w http.ResponseWriter, message string, code int) {
	RespondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
