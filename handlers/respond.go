package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Validation failures carry the full per-field breakdown in one response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch services.KindOf(err) {
	case services.KindUnauthenticated:
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case services.KindForbidden:
		writeMessage(w, http.StatusForbidden, err.Error())
	case services.KindValidationFailed:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "validation failed",
			"errors":  services.FieldsOf(err),
		})
	case services.KindNotFound:
		writeMessage(w, http.StatusNotFound, err.Error())
	case services.KindInvalidTransition:
		writeMessage(w, http.StatusBadRequest, err.Error())
	case services.KindStorageFailure:
		logging.Logger.Errorf("Event ID: STORAGE_FAILURE, Description: %v", err)
		writeMessage(w, http.StatusInternalServerError, err.Error())
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %v", err)
		writeMessage(w, http.StatusInternalServerError, "server error")
	}
}
