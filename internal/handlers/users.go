package handlers

import (
	"net/http"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
	"github.com/AnshRaj112/weatherlist-backend/internal/services"
)

// ProfileHandler serves the relational /api/users profile routes.
type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileResponse struct {
	Success bool                `json:"success"`
	User    *models.UserProfile `json:"user"`
}

// Get handles GET /api/users/{userId}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), pathParam(r, "userId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{Success: true, User: p})
}

// Save handles POST /api/users
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveUserRequest
	if err := decodeJSON(r, &req, "userId is required"); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.profiles.Save(r.Context(), req.UserID, req.UserName); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "User created/updated successfully"})
}
