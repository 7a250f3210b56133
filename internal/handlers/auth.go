package handlers

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/weatherlist-backend/internal/services"
	"github.com/AnshRaj112/weatherlist-backend/pkg/clientip"
)

const (
	msgRegistered    = "회원가입이 완료되었습니다"
	msgLoggedIn      = "로그인 성공"
	msgLoggedOut     = "로그아웃되었습니다"
	msgResetIssued   = "비밀번호 재설정 토큰이 발급되었습니다"
	msgPasswordReset = "비밀번호가 변경되었습니다"
)

// AuthHandler serves registration, login and account recovery.
type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type checkIDResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type loginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type findIDResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type findPasswordResponse struct {
	Success    bool   `json:"success"`
	ResetToken string `json:"resetToken"`
	ExpiresIn  int64  `json:"expiresIn"` // seconds
	Message    string `json:"message"`
}

// maskID keeps the first two characters of an account id for logs.
func maskID(id string) string {
	runes := []rune(id)
	if len(runes) <= 2 {
		return "***"
	}
	return string(runes[:2]) + "***"
}

func logAuthFailure(r *http.Request, op, userID string, err error) {
	switch services.KindOf(err) {
	case services.KindInvalidCredential, services.KindNotFound, services.KindDuplicateUser:
		log.Printf("auth: %s rejected for %s from %s: %s", op, maskID(userID), clientip.Anonymize(clientip.RealClientIP(r)), services.KindOf(err))
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req, services.MsgAllFieldsRequired); err != nil {
		respondError(w, r, err)
		return
	}

	err := h.identity.Register(r.Context(), services.RegisterInput{
		UserID:   req.UserID,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		logAuthFailure(r, "register", req.UserID, err)
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse{Success: true, Message: msgRegistered})
}

// CheckID handles POST /api/check-id
func (h *AuthHandler) CheckID(w http.ResponseWriter, r *http.Request) {
	var req CheckIDRequest
	if err := decodeJSON(r, &req, services.MsgUserIDRequired); err != nil {
		respondError(w, r, err)
		return
	}

	available, err := h.identity.CheckIDAvailable(r.Context(), req.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg := services.MsgUserIDAvailable
	if !available {
		msg = services.MsgUserIDTaken
	}
	respondJSON(w, http.StatusOK, checkIDResponse{Success: true, Available: available, Message: msg})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req, services.MsgLoginFieldsMissing); err != nil {
		respondError(w, r, err)
		return
	}

	sessionID, err := h.identity.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		logAuthFailure(r, "login", req.UserID, err)
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Success: true, SessionID: sessionID, Message: msgLoggedIn})
}

// Logout handles POST /api/logout. It succeeds even for a malformed body.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := decodeJSON(r, &req, ""); err == nil {
		_ = h.identity.Logout(r.Context(), req.SessionID)
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgLoggedOut})
}

// FindID handles POST /api/find-id
func (h *AuthHandler) FindID(w http.ResponseWriter, r *http.Request) {
	var req FindIDRequest
	if err := decodeJSON(r, &req, services.MsgFindIDFields); err != nil {
		respondError(w, r, err)
		return
	}

	userID, err := h.identity.FindID(r.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, findIDResponse{Success: true, UserID: userID})
}

// FindPassword handles POST /api/find-password
func (h *AuthHandler) FindPassword(w http.ResponseWriter, r *http.Request) {
	var req FindPasswordRequest
	if err := decodeJSON(r, &req, services.MsgAllFieldsRequired); err != nil {
		respondError(w, r, err)
		return
	}

	ticket, err := h.identity.FindPassword(r.Context(), req.UserID, req.Name, req.Phone)
	if err != nil {
		logAuthFailure(r, "find-password", req.UserID, err)
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, findPasswordResponse{
		Success:    true,
		ResetToken: ticket.Token,
		ExpiresIn:  int64(ticket.ExpiresIn.Seconds()),
		Message:    msgResetIssued,
	})
}

// ResetPassword handles POST /api/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req, services.MsgAllFieldsRequired); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.identity.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		logAuthFailure(r, "reset-password", "", err)
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: msgPasswordReset})
}
