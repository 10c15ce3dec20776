package httpserver

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moviehub/moviehub/internal/auth"
	"github.com/moviehub/moviehub/internal/repository"
)

const resetTokenTTL = 30 * time.Minute

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type tokenResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "A valid email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hash failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user, err := s.users.Create(r.Context(), req.Email, hash)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.respondError(w, http.StatusConflict, "Email already registered")
		case errors.Is(err, repository.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			s.logger.Error("create user failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	token, err := s.tokens.IssueUser(user.ID.Hex(), user.Email)
	if err != nil {
		s.logger.Error("issue user token failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, tokenResponse{Token: token, ID: user.ID.Hex(), Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			return
		}
		// Not-found and wrong-password collapse into one answer.
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.IssueUser(user.ID.Hex(), user.Email)
	if err != nil {
		s.logger.Error("issue user token failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{Token: token, ID: user.ID.Hex(), Email: user.Email})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	// The answer never reveals whether the address exists.
	const neutral = "If that email is registered, a reset link has been sent"

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrUnavailable) {
			s.logger.Error("forgot password lookup failed", zap.Error(err))
		}
		s.respondMessage(w, http.StatusOK, neutral)
		return
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		s.logger.Error("reset token generation failed", zap.Error(err))
		s.respondMessage(w, http.StatusOK, neutral)
		return
	}
	if err := s.users.SetResetToken(r.Context(), user.ID, tokenHash, time.Now().Add(resetTokenTTL)); err != nil {
		s.logger.Error("store reset token failed", zap.Error(err))
		s.respondMessage(w, http.StatusOK, neutral)
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.AppURL, "/"), token)
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nReset link (valid for 30 minutes): %s\r\n\r\nIf you did not request this, ignore this message.", link)
	if err := s.mail.Send(s.cfg.ResetEmailFrom, user.Email, "Reset your MovieHub password", body); err != nil {
		s.logger.Error("reset email failed", zap.Error(err), zap.String("email", user.Email))
	}

	s.respondMessage(w, http.StatusOK, neutral)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "A token and a password of at least 8 characters are required")
		return
	}

	user, err := s.users.GetByResetToken(r.Context(), hashResetToken(req.Token), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUnavailable) {
			s.respondError(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		s.logger.Error("reset token lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Password reset failed")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hash failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Password reset failed")
		return
	}
	if err := s.users.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		s.logger.Error("update password failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Password reset failed")
		return
	}

	s.respondMessage(w, http.StatusOK, "Password has been reset")
}

// newResetToken returns the 32-byte random token in hex plus its SHA-256
// hash; only the hash is persisted.
func newResetToken() (token, tokenHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
