package server

import (
	"net/http"

	"omifemcuts/pkg/domain"
	"omifemcuts/services/shop/internal/app"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedRequest struct {
	IDToken string `json:"idToken"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "signup", "", "too many signup attempts") {
		s.audit(r, "shop.signup", "rate_limited")
		return
	}
	var form app.RegisterForm
	if !decodeJSON(w, r, &form) {
		s.audit(r, "shop.signup", "fail", "reason", "invalid_json")
		return
	}
	user, token, err := s.app.Register(r.Context(), form)
	if err != nil {
		s.audit(r, "shop.signup", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "shop.signup", "success", "user_id", user.ID, "role", string(user.Role))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "login", "", "too many login attempts") {
		s.audit(r, "shop.login", "rate_limited")
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		s.audit(r, "shop.login", "fail", "reason", "invalid_json")
		return
	}
	user, token, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit(r, "shop.login", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "shop.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleFederatedLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "login", "", "too many login attempts") {
		s.audit(r, "shop.login.federated", "rate_limited")
		return
	}
	var req federatedRequest
	if !decodeJSON(w, r, &req) {
		s.audit(r, "shop.login.federated", "fail", "reason", "invalid_json")
		return
	}
	user, token, err := s.app.FederatedLogin(r.Context(), req.IDToken)
	if err != nil {
		s.audit(r, "shop.login.federated", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "shop.login.federated", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		s.audit(r, "shop.logout", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "shop.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var form app.ProfileForm
		if !decodeJSON(w, r, &form) {
			return
		}
		updated, err := s.app.UpdateProfile(r.Context(), user, form)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		methodNotAllowed(w)
	}
}
