package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coah80/mediaconv/internal/services"
	"github.com/coah80/mediaconv/internal/util"
)

const (
	msgToolFailure  = "Erreur traitement subprocess"
	msgBodyTooLarge = "Fichier trop volumineux"
	msgBadForm      = "Formulaire invalide"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

func formValueOr(r *http.Request, key, fallback string) string {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	return v
}

// errorResponse maps a pipeline error onto the status code and message sent to
// the client.
func errorResponse(err error) (int, string) {
	var (
		noInput  *services.NoValidInputError
		convErr  *services.ConversionError
		toolErr  *services.ToolExecutionError
		ioErr    *services.IOError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &noInput):
		return http.StatusBadRequest, noInput.Message
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, msgBodyTooLarge
	case errors.As(err, &convErr):
		return http.StatusInternalServerError, convErr.Error()
	case errors.As(err, &toolErr):
		msg := msgToolFailure + " (" + toolErr.Tool + ")"
		if hint := util.ToUserError(toolErr.Stderr); hint != "" {
			msg += ": " + hint
		} else if toolErr.TimedOut {
			msg += ": timeout"
		}
		return http.StatusInternalServerError, msg
	case errors.As(err, &ioErr):
		return http.StatusInternalServerError, ioErr.Error()
	}
	return http.StatusInternalServerError, err.Error()
}
