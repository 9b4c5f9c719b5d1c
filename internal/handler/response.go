package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// respondWithError wraps message in {"success": false, "error": message}.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, map[string]any{"success": false, "error": message})
}

func respondWithJson(w http.ResponseWriter, code int, payload any) {
	dat, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}
