package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
	"github.com/AnshRaj112/weatherlist-backend/internal/services"
)

// LocationHandler serves /api/locations.
type LocationHandler struct {
	locations *services.LocationService
}

func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type listLocationsResponse struct {
	Success   bool                   `json:"success"`
	Locations []models.SavedLocation `json:"locations"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type addLocationResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	LocationID int64  `json:"locationId"`
}

// pathParam returns a URL parameter with any remaining percent-encoding
// removed. A value that does not decode is used as is.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// List handles GET /api/locations/{userId}
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List(r.Context(), pathParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if locations == nil {
		locations = []models.SavedLocation{}
	}
	respondJSON(w, http.StatusOK, listLocationsResponse{Success: true, Locations: locations})
}

// Add handles POST /api/locations
func (h *LocationHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddLocationRequest
	if err := decodeJSON(r, &req, "userId and location are required"); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := h.locations.Add(r.Context(), services.AddLocationInput{
		UserID:    req.UserID,
		Name:      req.name(),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, addLocationResponse{
		Success:    true,
		Message:    "Location added successfully",
		LocationID: id,
	})
}

// Delete handles DELETE /api/locations/{userId}/{location}
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.locations.Delete(r.Context(), pathParam(r, "userId"), pathParam(r, "location"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Location deleted successfully"})
}

// Reorder handles PUT /api/locations/order
func (h *LocationHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := decodeJSON(r, &req, "userId and locations array are required"); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.locations.Reorder(r.Context(), req.UserID, req.Locations); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Location order updated successfully"})
}
