package handlers

// Request bodies. Presence of required fields is checked by the services so
// that each endpoint keeps its own message; tags here only bound formats.

type AddLocationRequest struct {
	UserID       string `json:"userId" validate:"max=50"`
	LocationName string `json:"locationName" validate:"max=100"`
	// Location is the field name older clients send.
	Location  string   `json:"location" validate:"max=100"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (r AddLocationRequest) name() string {
	if r.LocationName != "" {
		return r.LocationName
	}
	return r.Location
}

type ReorderRequest struct {
	UserID    string   `json:"userId" validate:"max=50"`
	Locations []string `json:"locations" validate:"max=500,dive,max=100"`
}

type RegisterRequest struct {
	UserID   string `json:"userId" validate:"max=50"`
	Password string `json:"password" validate:"max=128"`
	Name     string `json:"name" validate:"max=50"`
	Phone    string `json:"phone" validate:"max=20"`
}

type CheckIDRequest struct {
	UserID string `json:"userId" validate:"max=50"`
}

type LoginRequest struct {
	UserID   string `json:"userId" validate:"max=50"`
	Password string `json:"password" validate:"max=128"`
}

type LogoutRequest struct {
	SessionID string `json:"sessionId"`
}

type FindIDRequest struct {
	Name  string `json:"name" validate:"max=50"`
	Phone string `json:"phone" validate:"max=20"`
}

type FindPasswordRequest struct {
	UserID string `json:"userId" validate:"max=50"`
	Name   string `json:"name" validate:"max=50"`
	Phone  string `json:"phone" validate:"max=20"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword" validate:"max=128"`
}

type SaveUserRequest struct {
	UserID   string `json:"userId" validate:"max=50"`
	UserName string `json:"userName" validate:"max=100"`
}
