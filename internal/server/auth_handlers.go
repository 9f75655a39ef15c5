package server

import (
	"errors"
	"net/http"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs []FieldError
	if req.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "Username is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	user, err := s.store.UserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.writeStoreError(w, err, "", "")
		return
	}
	if !auth.ComparePassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("token generation failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
		},
		"message": "Login successful",
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user": map[string]any{
			"id":       claims.UserID,
			"username": claims.Username,
		},
	})
}
