package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/charta/internal/models"
)

// RequireMethod validates that the request uses the given method,
// writing a 405 otherwise
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteStageError writes an error response carrying stage attribution
// when err is a *models.StageError, falling back to a plain error body
func WriteStageError(w http.ResponseWriter, statusCode int, err error) error {
	var stageErr *models.StageError
	if errors.As(err, &stageErr) {
		return WriteJSON(w, statusCode, map[string]string{
			"status": "error",
			"stage":  string(stageErr.Stage),
			"error":  stageErr.Error(),
		})
	}
	return WriteError(w, statusCode, err.Error())
}
