package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/auth"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

var errVolunteerLoginDisabled = &apperror.AppError{
	Err:     apperror.ErrNotFound,
	Message: "volunteer login is not enabled",
}

// VolunteerHandler manages the volunteer session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin  → check the shared password, set the session cookie
//   - HandleLogout → clear the session cookie
//   - HandleMe     → tell the page whether a login is needed and present
//
// volunteers is nil when volunteer auth is not configured. Score entry is
// then open to everyone; login and logout answer 404.
type VolunteerHandler struct {
	volunteers *service.VolunteerService
	logger     *slog.Logger
}

func NewVolunteerHandler(volunteers *service.VolunteerService, logger *slog.Logger) *VolunteerHandler {
	return &VolunteerHandler{volunteers: volunteers, logger: logger}
}

// LoginRequest is the body of POST /api/volunteer/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// SessionResponse describes the caller's volunteer session.
type SessionResponse struct {
	AuthRequired  bool       `json:"authRequired"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// HandleLogin verifies the volunteer password and issues a session cookie.
//
// HTTP: POST /api/volunteer/login
// REQUEST BODY: {"password": "..."}
//
// The token lives only in an HttpOnly cookie, never in the body, so page
// scripts cannot read it.
func (h *VolunteerHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.volunteers == nil {
		writeError(w, errVolunteerLoginDisabled)
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.volunteers.Login(req.Password)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) && !errors.Is(err, apperror.ErrValidation) {
			h.logger.Error("volunteer login failed", slog.String("error", err.Error()))
		}
		writeError(w, err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(r, sess.Token))
	writeJSON(w, http.StatusOK, SessionResponse{
		AuthRequired:  true,
		Authenticated: true,
		ExpiresAt:     &sess.ExpiresAt,
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/volunteer/logout
func (h *VolunteerHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if h.volunteers == nil {
		writeError(w, errVolunteerLoginDisabled)
		return
	}
	http.SetCookie(w, auth.ClearedCookie())
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe reports the session attached by auth.OptionalVolunteer.
//
// HTTP: GET /api/volunteer/me
func (h *VolunteerHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if h.volunteers == nil {
		writeJSON(w, http.StatusOK, SessionResponse{AuthRequired: false, Authenticated: false})
		return
	}

	resp := SessionResponse{AuthRequired: true}
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		resp.Authenticated = true
		resp.ExpiresAt = &sess.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}
