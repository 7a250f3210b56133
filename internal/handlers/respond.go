package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/AnshRaj112/weatherlist-backend/internal/services"
	"github.com/AnshRaj112/weatherlist-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// errorResponse is the failure half of the envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Success: false, Error: message})
}

// respondError maps a service error to its status code and client message.
// Internal causes are logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	respondFailure(w, status, services.MessageOf(err))
}

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindInvalidCredential:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindDuplicateUser, services.KindDuplicateLocation:
		return http.StatusConflict
	case services.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and checks its validate tags.
// Every failure is a validation error carrying msg, or the field message when
// a tag failed.
func decodeJSON(r *http.Request, dst interface{}, msg string) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: msg, Err: err}
	}
	if err := utils.ValidateStruct(dst); err != nil {
		var ve *utils.ValidationError
		if errors.As(err, &ve) {
			return &services.Error{Kind: services.KindValidation, Message: ve.Message, Err: err}
		}
		return &services.Error{Kind: services.KindValidation, Message: msg, Err: err}
	}
	return nil
}

// NotFound answers unmatched routes, and wrong methods on matched ones.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   "Endpoint not found",
		"method":  r.Method,
		"path":    r.URL.Path,
	})
}
