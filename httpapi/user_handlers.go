package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
	"github.com/MrEthical07/authkeep/middleware"
	"github.com/go-chi/chi/v5"
)

type userResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    *authkeep.Profile `json:"user"`
}

type profileRequest struct {
	Fullname     *string `json:"fullname" validate:"omitempty,min=2,max=100,personname"`
	Username     *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,max=512"`
}

func (p *profileRequest) trim() {
	for _, f := range []*string{p.Fullname, p.Username, p.ProfileImage} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	s.writeProfile(w, r, id.UserID)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.writeProfile(w, r, chi.URLParam(r, "userId"))
}

func (s *Server) writeProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.engine.GetProfile(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponse{Success: true, User: p})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	s.applyProfile(w, r, id.UserID)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	s.applyProfile(w, r, chi.URLParam(r, "userId"))
}

func (s *Server) applyProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req profileRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.trim()
	p, err := s.engine.UpdateProfile(r.Context(), userID, authkeep.ProfileUpdate{
		Fullname:     req.Fullname,
		Username:     req.Username,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponse{Success: true, Message: "Profile updated successfully", User: p})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=1024,strongpassword"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor, _ := middleware.IdentityFromContext(r.Context())
	msg, err := s.engine.ChangePassword(r.Context(), actor, chi.URLParam(r, "userId"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

func (s *Server) toggleStatus(w http.ResponseWriter, r *http.Request) {
	msg, p, err := s.engine.ToggleUserStatus(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponse{Success: true, Message: msg, User: p})
}

func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	info, err := s.engine.CurrentSession(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "session": info})
}
