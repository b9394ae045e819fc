package httpapi

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/authkeep"
	"github.com/MrEthical07/authkeep/internal/httpx"
	"github.com/MrEthical07/authkeep/middleware"
	"github.com/MrEthical07/authkeep/social"
)

type authResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	AccessToken string            `json:"access_token,omitempty"`
	User        *authkeep.Profile `json:"user,omitempty"`
	StatusCode  int               `json:"status_code,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(msg string) messageResponse {
	return messageResponse{Success: true, Message: msg}
}

type registerRequest struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=100,personname"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=1024,strongpassword"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.Register(r.Context(), authkeep.RegisterRequest{
		Fullname: req.Fullname,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setRefreshCookie(w, res.RefreshToken)
	httpx.JSON(w, http.StatusCreated, authResponse{Success: true, Message: res.Message, AccessToken: res.AccessToken, User: res.User})
}

type loginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"omitempty,min=3,max=30"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		s.fail(w, r, authkeep.ValidationError("Validation errors", []string{"Either email or username is required"}))
		return
	}
	res, err := s.engine.Login(r.Context(), identifier, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setRefreshCookie(w, res.RefreshToken)
	httpx.JSON(w, http.StatusOK, authResponse{Success: true, Message: res.Message, AccessToken: res.AccessToken, User: res.User})
}

type googleLoginRequest struct {
	TokenID string `json:"tokenId" validate:"required"`
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.google == nil {
		s.fail(w, r, authkeep.NewError(authkeep.KindUpstreamUnavailable, "Google login is not configured"))
		return
	}
	id, err := s.google.Verify(r.Context(), req.TokenID)
	if err != nil {
		msg := "Invalid Google token"
		if errors.Is(err, social.ErrEmailUnverified) {
			msg = "Google account email is not verified"
		}
		e := authkeep.NewError(authkeep.KindTokenInvalid, msg)
		e.Err = err
		s.fail(w, r, e)
		return
	}

	res, err := s.engine.SocialLogin(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !res.SetupRequired {
		s.setRefreshCookie(w, res.RefreshToken)
	}
	httpx.JSON(w, http.StatusOK, authResponse{
		Success:     true,
		Message:     res.Message,
		AccessToken: res.AccessToken,
		User:        res.User,
		StatusCode:  res.StatusCode,
	})
}

type accountSetupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=1024,strongpassword"`
}

func (s *Server) accountSetup(w http.ResponseWriter, r *http.Request) {
	var req accountSetupRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.engine.AccountSetup(r.Context(), authkeep.AccountSetupRequest{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setRefreshCookie(w, res.RefreshToken)
	httpx.JSON(w, http.StatusOK, authResponse{Success: true, Message: res.Message, AccessToken: res.AccessToken, User: res.User})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.engine.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required_without=Token"`
	// Token is accepted as an alias of OTP.
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=1024,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=NewPassword"`
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	otp := req.OTP
	if otp == "" {
		otp = req.Token
	}
	msg, err := s.engine.ResetPassword(r.Context(), req.Email, otp, req.NewPassword)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

type verifyEmailQuery struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	q := verifyEmailQuery{
		Email: r.URL.Query().Get("email"),
		Token: r.URL.Query().Get("token"),
	}
	trimStrings(&q)
	if err := s.check(&q); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.engine.VerifyEmail(r.Context(), q.Email, q.Token)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := s.bind(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.engine.ResendVerification(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ok(msg))
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Refresh(r.Context(), s.refreshCookie(r))
	if err != nil {
		if errors.Is(err, authkeep.ErrTokenExpired) {
			s.clearRefreshCookie(w)
		}
		s.fail(w, r, err)
		return
	}
	s.setRefreshCookie(w, res.RefreshToken)
	httpx.JSON(w, http.StatusOK, authResponse{Success: true, Message: res.Message, AccessToken: res.AccessToken, User: res.User})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	if err := s.engine.Logout(r.Context(), id.Token, id.UserID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.clearRefreshCookie(w)
	httpx.JSON(w, http.StatusOK, ok("Logged out successfully"))
}
