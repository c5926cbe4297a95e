package adapthttp

import (
	"net/http"

	"carbon/internal/app"
	"carbon/internal/domain"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      *domain.Session `json:"user"`
	Notice    *app.Notice     `json:"notice,omitempty"`
	Footprint *footprintView  `json:"footprint,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	u, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	sess := domain.SessionFor(u)
	view := s.footprintView()
	notice := app.NoticeRegistered
	writeJSON(w, http.StatusCreated, sessionResponse{User: &sess, Notice: &notice, Footprint: &view})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sess, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	view := s.footprintView()
	notice := app.NoticeSignedIn
	writeJSON(w, http.StatusOK, sessionResponse{User: &sess, Notice: &notice, Footprint: &view})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context()); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": app.NoticeSignedOut})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.accounts.CurrentSession(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: sess})
}
